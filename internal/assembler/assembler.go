// Package assembler folds classified dump lines into itinerary segments.
//
// The Sabre and Travelport itinerary layouts share one state machine: a
// recognised segment line opens a record, annotation and free-text lines
// attach to the open record, and anything unrecognised outside a record marks
// the whole dump unparsable. Vendors differ only in how a segment line is
// recognised and in which filler lines are silently consumed, so those two
// hooks are the parameterisation.
package assembler

import (
	"regexp"

	"gds_parser/internal/gds"
)

var operatedByRe = regexp.MustCompile(`OPERATED\sBY\s`)

// Rules carries the vendor-specific hooks of the itinerary fold.
type Rules struct {
	// ParseSegment recognises and decodes a primary segment line.
	ParseSegment func(line string) (*gds.Segment, bool)

	// IsContinuation reports filler lines consumed without effect, such as
	// Sabre's /DC confirmation continuations. Nil means no filler lines.
	IsContinuation func(line string) bool
}

// FoldItinerary runs the line classification fold over a dump's lines.
// Classification rules are tried in fixed priority order per line and the
// first match wins. The parse is all-or-nothing: one unrecognised line fails
// the whole dump, with one error per offending line.
func FoldItinerary(lines []string, rules Rules) gds.ItineraryResult {
	itinerary := make([]*gds.Segment, 0, 4)
	var unparsed []string

	for _, line := range lines {
		if segment, ok := rules.ParseSegment(line); ok {
			itinerary = append(itinerary, segment)
			continue
		}

		if operatedByRe.MatchString(line) {
			if len(itinerary) == 0 {
				unparsed = append(unparsed, line)
				continue
			}
			itinerary[len(itinerary)-1].OperatedByString = gds.TrimPtr(line)
			continue
		}

		if rules.IsContinuation != nil && rules.IsContinuation(line) {
			continue
		}

		if len(itinerary) > 0 {
			last := itinerary[len(itinerary)-1]
			last.AdditionalInfoLines = append(last.AdditionalInfoLines, line)
			continue
		}

		unparsed = append(unparsed, line)
	}

	if len(unparsed) > 0 {
		errs := make([]string, 0, len(unparsed))
		for _, line := range unparsed {
			errs = append(errs, gds.CannotParse(line))
		}
		return gds.FailedItinerary(errs)
	}

	return gds.OKItinerary(&gds.Itinerary{Itinerary: itinerary})
}
