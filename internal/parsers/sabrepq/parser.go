// Package sabrepq parses Sabre price-quote itinerary dumps.
package sabrepq

import (
	"regexp"
	"strconv"
	"strings"

	"gds_parser/internal/assembler"
	"gds_parser/internal/columns"
	"gds_parser/internal/decode"
	"gds_parser/internal/gds"
	"gds_parser/internal/registry"
)

// ' 1 VS  26D 15SEP T JFKLHR SS1   815A  810P /DCVS /E'
const segmentMask = "NN AAFFFFB DDDDD W CCCVVV SSS  TTTTT XXXXX"

// Column after which a differing destination date trails as a free token.
const destinationDateOffset = 44

var segmentFields = map[rune]string{
	'N': "segmentNumber",
	'A': "airline",
	'F': "flightNumber",
	'B': "bookingClass",
	'D': "departureDateRaw",
	'W': "departureDayOfWeek",
	'C': "departureAirport",
	'V': "destinationAirport",
	'S': "segmentStatus",
	'T': "departureTimeRaw",
	'X': "destinationTimeRaw",
}

var (
	// Confirmation continuations like '   /DCVS*ABC123' carry no fields.
	continuationRe = regexp.MustCompile(`^\s+/DC[A-Z\d]{2}`)

	airlineRe      = regexp.MustCompile(`^[A-Z\d]{2}$`)
	bookingClassRe = regexp.MustCompile(`^[A-Z]$`)
	airportRe      = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Parser parses Sabre PQ itinerary dumps.
type Parser struct{}

func init() {
	registry.RegisterItinerary(gds.VendorSabre, Parser{})
}

// Parse runs the itinerary fold over the dump's lines.
func (Parser) Parse(dump, baseDate string) gds.ItineraryResult {
	return assembler.FoldItinerary(gds.SplitLines(dump), assembler.Rules{
		ParseSegment: func(line string) (*gds.Segment, bool) {
			return parseSegmentLine(line, baseDate)
		},
		IsContinuation: continuationRe.MatchString,
	})
}

// parseSegmentLine recognises a primary segment line. Airline, flight number,
// booking class, departure date and both airports gate the match; a line
// failing any of them is not a segment line and falls through to the other
// classification rules.
func parseSegmentLine(line, baseDate string) (*gds.Segment, bool) {
	fields := columns.SplitByPosition(line, segmentMask, segmentFields, true)

	flightNumber, _ := strconv.Atoi(fields["flightNumber"])
	departureDate, departureDateOK := decode.GdsPartialDate(fields["departureDateRaw"])

	valid := airlineRe.MatchString(fields["airline"]) &&
		flightNumber > 0 &&
		bookingClassRe.MatchString(fields["bookingClass"]) &&
		departureDateOK &&
		airportRe.MatchString(fields["departureAirport"]) &&
		airportRe.MatchString(fields["destinationAirport"])
	if !valid {
		return nil, false
	}

	segment := &gds.Segment{
		SegmentNumber:         fields["segmentNumber"],
		Airline:               fields["airline"],
		FlightNumber:          fields["flightNumber"],
		BookingClass:          fields["bookingClass"],
		SegmentStatus:         fields["segmentStatus"],
		DepartureDateRaw:      fields["departureDateRaw"],
		DepartureDayOfWeekRaw: fields["departureDayOfWeek"],
		DepartureAirport:      fields["departureAirport"],
		DepartureTimeRaw:      fields["departureTimeRaw"],
		DestinationAirport:    fields["destinationAirport"],
		DestinationTimeRaw:    fields["destinationTimeRaw"],
		AdditionalInfoLines:   []string{},
	}

	if day, ok := decode.SabreDayOfWeek(fields["departureDayOfWeek"]); ok {
		segment.DepartureDayOfWeek = &day
	}
	if date, ok := decode.FullDateInFuture(departureDate, baseDate); ok {
		segment.DepartureDate = &date
	}
	if t, ok := decode.GdsTime(fields["departureTimeRaw"]); ok {
		segment.DepartureTime = &t
	}
	if t, ok := decode.GdsTime(fields["destinationTimeRaw"]); ok {
		segment.DestinationTime = &t
	}

	// A destination date differing from the departure date trails the fixed
	// columns as a whitespace-separated token; absent, the departure date is
	// assumed.
	segment.DestinationDateRaw = segment.DepartureDateRaw
	if token, ok := firstTrailingToken(line); ok {
		if _, ok := decode.GdsPartialDate(token); ok {
			segment.DestinationDateRaw = token
		}
	}
	if pd, ok := decode.GdsPartialDate(segment.DestinationDateRaw); ok {
		if date, ok := decode.FullDateInFuture(pd, baseDate); ok {
			segment.DestinationDate = &date
		}
	}

	return segment, true
}

func firstTrailingToken(line string) (string, bool) {
	runes := []rune(line)
	if len(runes) <= destinationDateOffset {
		return "", false
	}
	tokens := strings.Fields(string(runes[destinationDateOffset:]))
	if len(tokens) == 0 {
		return "", false
	}
	return tokens[0], true
}
