// Package parsers imports all parser packages to trigger their init() registration.
// Import this package for side effects only.
package parsers

import (
	// Import all parser packages to register them with the registry.
	_ "gds_parser/internal/parsers/sabrepq"
	_ "gds_parser/internal/parsers/sabresvc"
	_ "gds_parser/internal/parsers/travelportpq"
	_ "gds_parser/internal/parsers/travelportsvc"
)
