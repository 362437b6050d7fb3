// Package registry dispatches dumps to the parser registered for a GDS vendor
// and record kind. Parser packages register themselves during init().
package registry

import (
	"sync"

	"gds_parser/internal/gds"
)

// ItineraryParser parses a price-quote itinerary dump against a base date.
type ItineraryParser interface {
	Parse(dump, baseDate string) gds.ItineraryResult
}

// ServiceInfoParser parses a *SVC / VI* service-information dump.
type ServiceInfoParser interface {
	Parse(dump string) gds.ServiceInfoResult
}

// Registry maps (vendor, record kind) to a parser.
type Registry struct {
	mu          sync.RWMutex
	itinerary   map[gds.Vendor]ItineraryParser
	serviceInfo map[gds.Vendor]ServiceInfoParser
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		itinerary:   make(map[gds.Vendor]ItineraryParser),
		serviceInfo: make(map[gds.Vendor]ServiceInfoParser),
	}
}

var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry {
	return defaultRegistry
}

// RegisterItinerary adds an itinerary parser to the default registry.
// Called during init() in each parser package.
func RegisterItinerary(vendor gds.Vendor, p ItineraryParser) {
	defaultRegistry.RegisterItinerary(vendor, p)
}

// RegisterServiceInfo adds a service-info parser to the default registry.
func RegisterServiceInfo(vendor gds.Vendor, p ServiceInfoParser) {
	defaultRegistry.RegisterServiceInfo(vendor, p)
}

// RegisterItinerary adds an itinerary parser for a vendor.
func (r *Registry) RegisterItinerary(vendor gds.Vendor, p ItineraryParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itinerary[vendor] = p
}

// RegisterServiceInfo adds a service-info parser for a vendor.
func (r *Registry) RegisterServiceInfo(vendor gds.Vendor, p ServiceInfoParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serviceInfo[vendor] = p
}

// Vendors returns the vendors registered for a record kind.
func (r *Registry) Vendors(kind gds.RecordKind) []gds.Vendor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var vendors []gds.Vendor
	switch kind {
	case gds.KindItinerary:
		for v := range r.itinerary {
			vendors = append(vendors, v)
		}
	case gds.KindServiceInfo:
		for v := range r.serviceInfo {
			vendors = append(vendors, v)
		}
	}
	return vendors
}

// ParsePriceQuoteItinerary parses a pasted PQ dump with the vendor's itinerary
// parser. The dump is preprocessed to restore a missing leading space on the
// first line before parsing. An unregistered vendor is a configuration error
// reported as a single-error envelope, with no partial processing.
func (r *Registry) ParsePriceQuoteItinerary(vendor gds.Vendor, baseDate, dump string) gds.ItineraryResult {
	r.mu.RLock()
	p, ok := r.itinerary[vendor]
	r.mu.RUnlock()

	if !ok {
		return gds.FailedItinerary([]string{"Unsupported GDS - " + string(vendor)})
	}

	return p.Parse(gds.FixFirstSegmentLine(dump), baseDate)
}

// ParseServiceInfoDump parses a service-information dump with the vendor's
// service-info parser.
func (r *Registry) ParseServiceInfoDump(vendor gds.Vendor, dump string) gds.ServiceInfoResult {
	r.mu.RLock()
	p, ok := r.serviceInfo[vendor]
	r.mu.RUnlock()

	if !ok {
		return gds.FailedServiceInfo([]string{"Unsupported GDS - " + string(vendor)})
	}

	return p.Parse(dump)
}

// ParsePriceQuoteItinerary dispatches on the default registry.
func ParsePriceQuoteItinerary(vendor gds.Vendor, baseDate, dump string) gds.ItineraryResult {
	return defaultRegistry.ParsePriceQuoteItinerary(vendor, baseDate, dump)
}

// ParseServiceInfoDump dispatches on the default registry.
func ParseServiceInfoDump(vendor gds.Vendor, dump string) gds.ServiceInfoResult {
	return defaultRegistry.ParseServiceInfoDump(vendor, dump)
}
