// Package travelportpq parses Apollo and Galileo price-quote itinerary dumps.
// The two vendors share Travelport's record layout and differ only in column
// positions and the day-offset alphabet, so one parser covers both, selected
// by vendor at registration.
package travelportpq

import (
	"regexp"
	"strconv"
	"time"

	"gds_parser/internal/assembler"
	"gds_parser/internal/columns"
	"gds_parser/internal/decode"
	"gds_parser/internal/gds"
	"gds_parser/internal/registry"
)

const (
	//                   ' 1 CZ 328T 21APR LAXCAN HK1  1150P  540A2*      TH/SA   E  1'
	apolloMask = "NN AAFFFFB DDDDD CCCVVV SSS  TTTTT XXXXXP       UU II      M"

	//                    ' 2. LH  595 L  17MAY PHCFRA HS1   755P # 525A O          TH  1'
	galileoMask = "NN  AA FFFF B  DDDDD CCCVVV SSS  TTTTT PXXXXX            UU  M"
)

var segmentFields = map[rune]string{
	'N': "segmentNumber",
	'A': "airline",
	'F': "flightNumber",
	'B': "bookingClass",
	'D': "departureDateRaw",
	'C': "departureAirport",
	'V': "destinationAirport",
	'S': "segmentStatus",
	'T': "departureTimeRaw",
	'X': "destinationTimeRaw",
	'P': "destinationDateOffsetToken",
	'U': "departureDayOfWeekRaw",
	'I': "destinationDayOfWeekRaw",
	'M': "segmentMarriageId",
}

var (
	airlineRe      = regexp.MustCompile(`^[A-Z\d]{2}$`)
	bookingClassRe = regexp.MustCompile(`^[A-Z]$`)
	airportRe      = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Parser parses Travelport PQ itinerary dumps for one vendor.
type Parser struct {
	Vendor gds.Vendor
}

func init() {
	registry.RegisterItinerary(gds.VendorApollo, Parser{Vendor: gds.VendorApollo})
	registry.RegisterItinerary(gds.VendorGalileo, Parser{Vendor: gds.VendorGalileo})
}

// Parse runs the itinerary fold over the dump's lines.
func (p Parser) Parse(dump, baseDate string) gds.ItineraryResult {
	mask := apolloMask
	if p.Vendor == gds.VendorGalileo {
		mask = galileoMask
	}

	return assembler.FoldItinerary(gds.SplitLines(dump), assembler.Rules{
		ParseSegment: func(line string) (*gds.Segment, bool) {
			return parseSegmentLine(line, mask, baseDate)
		},
	})
}

func parseSegmentLine(line, mask, baseDate string) (*gds.Segment, bool) {
	fields := columns.SplitByPosition(line, mask, segmentFields, true)

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
		SegmentNumber:              fields["segmentNumber"],
		Airline:                    fields["airline"],
		FlightNumber:               fields["flightNumber"],
		BookingClass:               fields["bookingClass"],
		SegmentStatus:              fields["segmentStatus"],
		DepartureDateRaw:           fields["departureDateRaw"],
		DepartureAirport:           fields["departureAirport"],
		DepartureTimeRaw:           fields["departureTimeRaw"],
		DestinationAirport:         fields["destinationAirport"],
		DestinationTimeRaw:         fields["destinationTimeRaw"],
		DestinationDateOffsetToken: fields["destinationDateOffsetToken"],
		DepartureDayOfWeekRaw:      fields["departureDayOfWeekRaw"],
		DestinationDayOfWeekRaw:    fields["destinationDayOfWeekRaw"],
		SegmentMarriageID:          fields["segmentMarriageId"],
		AdditionalInfoLines:        []string{},
	}

	// The day-of-week prints in either the departure or the destination
	// column, never both on one line.
	dayToken := fields["departureDayOfWeekRaw"]
	if dayToken == "" {
		dayToken = fields["destinationDayOfWeekRaw"]
	}
	if day, ok := decode.TravelportDayOfWeek(dayToken); ok {
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

	// Travelport never prints a textual arrival date; it is always the
	// departure date advanced by the decoded day offset.
	offsetDays := 0
	if offset, ok := decode.DayOffsetTravelport(fields["destinationDateOffsetToken"]); ok {
		segment.DestinationDateOffset = &offset
		offsetDays = offset
	}
	if segment.DepartureDate != nil {
		if dep, err := time.Parse("2006-01-02", *segment.DepartureDate); err == nil {
			dest := dep.AddDate(0, 0, offsetDays).Format("2006-01-02")
			segment.DestinationDate = &dest
		}
	}

	return segment, true
}
