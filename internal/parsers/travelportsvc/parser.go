// Package travelportsvc parses Apollo and Galileo *SVC in-flight service
// information dumps into segments and legs. Unlike itinerary dumps, *SVC
// parsing is lenient: lines that match no classifier are skipped, not errors.
package travelportsvc

import (
	"regexp"
	"strconv"
	"strings"

	"gds_parser/internal/columns"
	"gds_parser/internal/gds"
	"gds_parser/internal/registry"
)

// ServiceInfo is the payload of a successful *SVC parse.
type ServiceInfo struct {
	Segments []*Segment `json:"segments"`
}

// Segment is one fare segment. Terminal info prints per segment in *SVC
// dumps; post-processing redistributes it onto the first leg's departure and
// the last leg's arrival.
type Segment struct {
	SegmentNumber     int      `json:"segmentNumber"`
	Airline           string   `json:"airline"`
	FlightNumber      string   `json:"flightNumber"`
	BookingClass      string   `json:"bookingClass"`
	DepartureTerminal *string  `json:"departureTerminal"`
	ArrivalTerminal   *string  `json:"arrivalTerminal"`
	OperatedByText    string   `json:"operatedByText"`
	MiscInfoLines     []string `json:"miscInfoLines"`
	HasPlaneChange    bool     `json:"hasPlaneChange"`
	Legs              []*Leg   `json:"legs"`
}

// Leg is one physical flight under a segment. Hidden-stop lines add legs to
// the segment opened by the preceding numbered line.
type Leg struct {
	DepartureAirport      string        `json:"departureAirport"`
	DestinationAirport    string        `json:"destinationAirport"`
	Aircraft              string        `json:"aircraft"`
	MealOptions           string        `json:"mealOptions"`
	MealOptionsParsed     []string      `json:"mealOptionsParsed"`
	FlightDuration        string        `json:"flightDuration"`
	DepartureTerminal     *gds.Terminal `json:"departureTerminal,omitempty"`
	ArrivalTerminal       *gds.Terminal `json:"arrivalTerminal,omitempty"`
	InFlightServicesLines []string      `json:"inFlightServicesLines"`
}

// ' 1 DL 2464  V TPAJFK  717  REFRESH AT COST                 2:44'
const segmentMask = "NN AAFFFFF  B DDDSSS CCCC  MMMMMMMMMMMMMMMMMMMMMMMMMMMMMMTTTTTT"

var segmentFields = map[rune]string{
	'N': "segmentNumber",
	'A': "airline",
	'F': "flightNumber",
	'B': "bookingClass",
	'D': "departureAirport",
	'S': "destinationAirport",
	'C': "aircraft",
	'M': "mealOptions",
	'T': "flightDuration",
}

// '           DEPARTS JFK TERMINAL 4  - ARRIVES MNL TERMINAL 3'
const terminalMask = "           DDDDDDD EEE TTTTTTTT NN   AAAAAAA BBB SSSSSSSS MM"

var terminalFields = map[rune]string{
	'D': "departsToken",
	'E': "departureAirport",
	'N': "departureTerminal",
	'A': "arrivesToken",
	'B': "arrivalAirport",
	'M': "arrivalTerminal",
}

var (
	segmentStartRe = regexp.MustCompile(`^[\s\d]\d`)
	hiddenStopRe   = regexp.MustCompile(`^\s{14}[A-Z]{6}`)
	operatedByRe   = regexp.MustCompile(`^\s{11}OPERATED\sBY\s`)
	planeChangeRe  = regexp.MustCompile(`^\s{11}PLANE\sCHANGE\s(AT\s[A-Z]{3}|[A-Z]{3}-[A-Z]{3})`)
	inFlightSvcRe  = regexp.MustCompile(`^\s{22}`)
	miscInfoRe     = regexp.MustCompile(`^\s{11}`)
)

// Slash-delimited meal descriptions in *SVC free text.
var mealOptions = map[string]string{
	"MEAL":             "MEAL_MEAL",
	"LUNCH":            "MEAL_LUNCH",
	"SNACK":            "MEAL_SNACK",
	"DINNER":           "MEAL_DINNER",
	"HOT MEAL":         "MEAL_HOT_MEAL",
	"COLD MEAL":        "MEAL_COLD_MEAL",
	"BREAKFAST":        "MEAL_BREAKFAST",
	"NO MEAL SVC":      "MEAL_NO_MEAL_SVC",
	"MEAL AT COST":     "MEAL_MEAL_AT_COST",
	"REFRESHMENTS":     "MEAL_REFRESHMENTS",
	"CONT. BREAKFAST":  "MEAL_CONTINENTAL_BREAKFAST",
	"ALCOHOL NO COST":  "MEAL_ALCOHOL_NO_COST",
	"REFRESH AT COST":  "MEAL_REFRESH_AT_COST",
	"FOOD TO PURCHASE": "MEAL_FOOD_TO_PURCHASE",
	"ALCOHOL PURCHASE": "MEAL_ALCOHOL_PURCHASE",
}

// Parser parses *SVC dumps. The Apollo and Galileo layouts are identical.
type Parser struct{}

func init() {
	registry.RegisterServiceInfo(gds.VendorApollo, Parser{})
	registry.RegisterServiceInfo(gds.VendorGalileo, Parser{})
}

// Parse folds the dump's lines into segments, then redistributes terminal
// info onto legs and derives the plane-change flag.
func (Parser) Parse(dump string) gds.ServiceInfoResult {
	w := &writer{}

	for _, line := range gds.SplitLines(dump) {
		switch {
		case isSegmentStartLine(line):
			w.segmentStart(parseSegmentStartLine(line))
		case operatedByRe.MatchString(line):
			w.operatedBy(strings.TrimSpace(line))
		case isTerminalInfoLine(line):
			departure, arrival := parseTerminalInfoLine(line)
			w.terminals(departure, arrival)
		case inFlightSvcRe.MatchString(line) && strings.TrimSpace(line) != "":
			w.inFlightServices(strings.TrimSpace(line))
		case planeChangeRe.MatchString(line):
			w.planeChange()
		case miscInfoRe.MatchString(line) && strings.TrimSpace(line) != "":
			w.miscInfo(strings.TrimSpace(line))
		default:
			// lines we don't understand are allowed in *SVC dumps
		}
	}

	segments := w.finish()
	for _, segment := range segments {
		postprocessSegment(segment)
	}

	return gds.OKServiceInfo(&ServiceInfo{Segments: segments})
}

// segmentStart holds one decoded segment/leg start line.
type segmentStart struct {
	segmentNumber int
	hidden        bool // hidden stop: extends the previous segment with a leg
	airline       string
	flightNumber  string
	bookingClass  string
	leg           *Leg
}

func isSegmentStartLine(line string) bool {
	return segmentStartRe.MatchString(line) || hiddenStopRe.MatchString(line)
}

func parseSegmentStartLine(line string) segmentStart {
	fields := columns.SplitByPosition(line, segmentMask, segmentFields, true)

	number, err := strconv.Atoi(fields["segmentNumber"])
	hidden := err != nil || number == 0

	return segmentStart{
		segmentNumber: number,
		hidden:        hidden,
		airline:       fields["airline"],
		flightNumber:  fields["flightNumber"],
		bookingClass:  fields["bookingClass"],
		leg: &Leg{
			DepartureAirport:      fields["departureAirport"],
			DestinationAirport:    fields["destinationAirport"],
			Aircraft:              fields["aircraft"],
			MealOptions:           fields["mealOptions"],
			MealOptionsParsed:     parseMealOptions(fields["mealOptions"]),
			FlightDuration:        normalizeDuration(fields["flightDuration"]),
			InFlightServicesLines: []string{},
		},
	}
}

func isTerminalInfoLine(line string) bool {
	fields := columns.SplitByPosition(line, terminalMask, terminalFields, true)
	return fields["departsToken"] == "DEPARTS" || fields["arrivesToken"] == "ARRIVES"
}

func parseTerminalInfoLine(line string) (departure, arrival string) {
	fields := columns.SplitByPosition(line, terminalMask, terminalFields, true)
	return fields["departureTerminal"], fields["arrivalTerminal"]
}

func parseMealOptions(text string) []string {
	parsed := []string{}
	for _, part := range strings.Split(text, "/") {
		if meal, ok := mealOptions[part]; ok {
			parsed = append(parsed, meal)
		}
	}
	return parsed
}

// normalizeDuration zero-fills durations printed without an hour digit
// (':49' -> '0:49').
func normalizeDuration(duration string) string {
	if strings.HasPrefix(duration, ":") {
		return "0" + duration
	}
	return duration
}

// postprocessSegment spreads segment-level terminal info onto the first leg's
// departure and the last leg's arrival, and derives the plane-change flag
// from distinct aircraft codes (keeping an explicit PLANE CHANGE annotation
// when the dump carried one).
func postprocessSegment(segment *Segment) {
	if len(segment.Legs) > 0 {
		first := segment.Legs[0]
		last := segment.Legs[len(segment.Legs)-1]
		if segment.DepartureTerminal != nil {
			first.DepartureTerminal = terminalRef(*segment.DepartureTerminal)
		}
		if segment.ArrivalTerminal != nil {
			last.ArrivalTerminal = terminalRef(*segment.ArrivalTerminal)
		}
	}

	distinct := map[string]bool{}
	for _, leg := range segment.Legs {
		if leg.Aircraft != "" {
			distinct[leg.Aircraft] = true
		}
	}
	if len(distinct) > 1 {
		segment.HasPlaneChange = true
	}
}

// terminalRef builds a leg terminal reference from the *SVC column value,
// which is already a bare terminal code.
func terminalRef(raw string) *gds.Terminal {
	t := &gds.Terminal{Raw: raw}
	if raw != "" {
		code := raw
		t.Parsed = &code
	}
	return t
}

// writer folds classified lines into segments, tracking the open segment and
// leg the way the line stream interleaves them.
type writer struct {
	segments       []*Segment
	currentSegment *Segment
	currentLeg     *Leg
}

func (w *writer) finalizeLeg() {
	if w.currentLeg != nil && w.currentSegment != nil {
		w.currentSegment.Legs = append(w.currentSegment.Legs, w.currentLeg)
	}
	w.currentLeg = nil
}

func (w *writer) finalizeSegment() {
	if w.currentSegment != nil {
		w.finalizeLeg()
		w.segments = append(w.segments, w.currentSegment)
		w.currentSegment = nil
	}
}

func (w *writer) segmentStart(data segmentStart) {
	if data.hidden {
		// hidden stop with nothing open: nowhere to attach the leg
		if w.currentSegment == nil {
			return
		}
	} else {
		w.finalizeSegment()
		w.currentSegment = &Segment{
			SegmentNumber: data.segmentNumber,
			Airline:       data.airline,
			FlightNumber:  data.flightNumber,
			BookingClass:  data.bookingClass,
			MiscInfoLines: []string{},
		}
	}
	w.finalizeLeg()
	w.currentLeg = data.leg
}

func (w *writer) operatedBy(text string) {
	if w.currentSegment != nil {
		w.currentSegment.OperatedByText = text
	}
}

func (w *writer) terminals(departure, arrival string) {
	if w.currentSegment != nil {
		w.currentSegment.DepartureTerminal = &departure
		w.currentSegment.ArrivalTerminal = &arrival
	}
}

func (w *writer) inFlightServices(text string) {
	if w.currentLeg != nil {
		w.currentLeg.InFlightServicesLines = append(w.currentLeg.InFlightServicesLines, text)
	}
}

func (w *writer) planeChange() {
	if w.currentSegment != nil {
		w.currentSegment.HasPlaneChange = true
	}
}

func (w *writer) miscInfo(text string) {
	if w.currentSegment != nil {
		w.currentSegment.MiscInfoLines = append(w.currentSegment.MiscInfoLines, text)
	}
}

func (w *writer) finish() []*Segment {
	w.finalizeSegment()
	if w.segments == nil {
		return []*Segment{}
	}
	return w.segments
}
