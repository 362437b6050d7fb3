// Package gds provides GDS dump types and the parse result envelope.
package gds

import (
	"regexp"
	"strings"
)

// Vendor identifies the Global Distribution System that produced a dump.
type Vendor string

const (
	VendorSabre   Vendor = "sabre"
	VendorApollo  Vendor = "apollo"
	VendorGalileo Vendor = "galileo"
)

// RecordKind identifies which kind of dump a parser handles.
type RecordKind string

const (
	KindItinerary   RecordKind = "itinerary"
	KindServiceInfo RecordKind = "service-info"
)

var lineEndingRe = regexp.MustCompile(`\r\n|\n|\r`)

// SplitLines splits a raw dump into physical lines. Dumps are copy-pasted
// terminal output and may mix \r\n, \n and \r within one string.
func SplitLines(dump string) []string {
	return lineEndingRe.Split(dump, -1)
}

// Agents often miss the leading space on the first line when pasting PQ dumps.
var missingLeadSpaceRe = regexp.MustCompile(`^\d(\s|\.\s)[A-Z\d]`)

// FixFirstSegmentLine restores the leading space on the first line of a pasted
// dump when it was lost. Dumps that are already correctly spaced are returned
// unchanged, so the fix is idempotent.
func FixFirstSegmentLine(dump string) string {
	lines := SplitLines(dump)
	if len(lines) > 0 && missingLeadSpaceRe.MatchString(lines[0]) {
		return " " + dump
	}
	return dump
}

// CannotParse formats the per-line error string quoted back to the caller.
func CannotParse(line string) string {
	return "Cannot parse line [" + line + "]"
}

// Terminal is an airport terminal reference: the raw text from the dump plus
// the extracted terminal code, nil when the text carried no recognisable code.
type Terminal struct {
	Raw    string  `json:"raw"`
	Parsed *string `json:"parsed"`
}

// Itinerary is the payload of a successful price-quote parse.
type Itinerary struct {
	Itinerary []*Segment `json:"itinerary"`
}

// Segment is one priced flight segment from an itinerary dump. Raw fields hold
// the column text verbatim; parsed fields are nil when the token could not be
// decoded (non-gating fields are carried as null rather than failing the line).
// Fields only one vendor produces are tagged omitempty.
type Segment struct {
	SegmentNumber string `json:"segmentNumber"`
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flightNumber"`
	BookingClass  string `json:"bookingClass"`
	SegmentStatus string `json:"segmentStatus"`

	DepartureDateRaw      string  `json:"departureDateRaw"`
	DepartureDate         *string `json:"departureDate"`
	DepartureDayOfWeekRaw string  `json:"departureDayOfWeekRaw,omitempty"`
	DepartureDayOfWeek    *int    `json:"departureDayOfWeek"`
	DepartureAirport      string  `json:"departureAirport"`
	DepartureTimeRaw      string  `json:"departureTimeRaw"`
	DepartureTime         *string `json:"departureTime"`

	DestinationAirport string  `json:"destinationAirport"`
	DestinationTimeRaw string  `json:"destinationTimeRaw"`
	DestinationTime    *string `json:"destinationTime"`
	DestinationDateRaw string  `json:"destinationDateRaw,omitempty"`
	DestinationDate    *string `json:"destinationDate"`

	// Travelport layouts encode the arrival date as a day offset.
	DestinationDateOffsetToken string `json:"destinationDateOffsetToken,omitempty"`
	DestinationDateOffset      *int   `json:"destinationDateOffset,omitempty"`
	DestinationDayOfWeekRaw    string `json:"destinationDayOfWeekRaw,omitempty"`
	SegmentMarriageID          string `json:"segmentMarriageId,omitempty"`

	OperatedByString    *string  `json:"operatedByString"`
	AdditionalInfoLines []string `json:"additionalInfoLines"`
}

// ItineraryResult is the envelope returned by itinerary parsers. Exactly one
// of Result and Errors is populated; Errors is never empty on failure.
type ItineraryResult struct {
	Success bool       `json:"success"`
	Result  *Itinerary `json:"result,omitempty"`
	Errors  []string   `json:"errors,omitempty"`
}

// OKItinerary wraps a parsed itinerary in a success envelope.
func OKItinerary(it *Itinerary) ItineraryResult {
	return ItineraryResult{Success: true, Result: it}
}

// FailedItinerary wraps unparsable-line errors in a failure envelope.
func FailedItinerary(errs []string) ItineraryResult {
	return ItineraryResult{Success: false, Errors: errs}
}

// ServiceInfoResult is the envelope returned by service-info parsers. The
// payload shape is vendor specific, so Result is left dynamically typed; the
// Sabre VI* parser reports a garbled header as success with a nil payload.
type ServiceInfoResult struct {
	Success bool     `json:"success"`
	Result  any      `json:"result,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// OKServiceInfo wraps a service-info payload in a success envelope.
func OKServiceInfo(v any) ServiceInfoResult {
	return ServiceInfoResult{Success: true, Result: v}
}

// FailedServiceInfo wraps errors in a failure envelope.
func FailedServiceInfo(errs []string) ServiceInfoResult {
	return ServiceInfoResult{Success: false, Errors: errs}
}

// TrimPtr returns a pointer to the trimmed string. Used for nullable fields
// that are set from a matched line.
func TrimPtr(s string) *string {
	t := strings.TrimSpace(s)
	return &t
}
