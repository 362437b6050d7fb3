// Package sabresvc parses Sabre VI* in-flight service information dumps.
// A VI* dump opens with a fixed column header; anything else is not a VI*
// dump and yields a nil payload. Within a recognised dump, segment lines
// carry a leg directly and unrecognised lines are skipped.
package sabresvc

import (
	"regexp"
	"strconv"
	"strings"

	"gds_parser/internal/columns"
	"gds_parser/internal/decode"
	"gds_parser/internal/gds"
	"gds_parser/internal/registry"
)

// ServiceInfo is the payload of a successful VI* parse.
type ServiceInfo struct {
	Segments []*Segment `json:"segments"`
}

// Segment is one fare segment. Lines without a segment number are additional
// legs of the current segment (multi-leg connections under one number).
type Segment struct {
	SegmentNumber  string `json:"segmentNumber"`
	Airline        string `json:"airline"`
	FlightNumber   string `json:"flightNumber"`
	Legs           []*Leg `json:"legs"`
	HasPlaneChange bool   `json:"hasPlaneChange"`
}

// Leg is one physical flight of a segment.
type Leg struct {
	DepartureDate       *DateRef      `json:"departureDate"`
	DepartureAirport    string        `json:"departureAirport"`
	DestinationAirport  string        `json:"destinationAirport"`
	DepartureTime       *TimeRef      `json:"departureTime"`
	DestinationTime     *TimeRef      `json:"destinationTime"`
	Offset              *int          `json:"offset"`
	Meals               Meals         `json:"meals"`
	Smoking             bool          `json:"smoking"`
	Aircraft            string        `json:"aircraft"`
	FlightDuration      *string       `json:"flightDuration"`
	Miles               string        `json:"miles"`
	DepartureTerminal   *gds.Terminal `json:"departureTerminal"`
	DestinationTerminal *gds.Terminal `json:"destinationTerminal"`
}

// DateRef pairs a raw date token with its M-D rendering.
type DateRef struct {
	Raw    string `json:"raw"`
	Parsed string `json:"parsed"`
}

// TimeRef pairs a raw time token with its 24h rendering.
type TimeRef struct {
	Raw    string `json:"raw"`
	Parsed string `json:"parsed"`
}

// Meals pairs the raw meal-code letters with their decoded categories.
type Meals struct {
	Raw    string   `json:"raw"`
	Parsed []string `json:"parsed"`
}

// '   FLIGHT  DATE  SEGMENT DPTR  ARVL    MLS  EQP  ELPD MILES SM '
var headerRe = regexp.MustCompile(`FLIGHT.*DATE.*SEGMENT.*DPTR.*ARVL.*EQP.*ELPD`)

// ' 1 PR  127 24NOV JFK YVR 1155P  310A¥1 D    773  6.15  2424  N '
const segmentMask = "LL AA_FFFF DDDDD PPP SSS TTTTT QQQQQXX MMM  EEE OOOOO IIIII NN"

var segmentFields = map[rune]string{
	' ': "whitespace",
	'L': "segmentNumber",
	'A': "airline",
	'F': "flightNumber",
	'D': "departureDate",
	'P': "departureAirport",
	'S': "destinationAirport",
	'T': "departureTime",
	'Q': "destinationTime",
	'X': "offset",
	'M': "meals",
	'E': "aircraft",
	'O': "flightDuration",
	'I': "miles",
	'N': "smoking",
}

var (
	terminalLineRe   = regexp.MustCompile(`^(DEP-.+?)?(ARR-.+)?$`)
	terminalCodeRe   = regexp.MustCompile(`^(?:TERMINAL|INTERNATIONAL) ([A-Z0-9]{1,2})$`)
	airportRe        = regexp.MustCompile(`^[A-Z]{3}$`)
	flightDurationRe = regexp.MustCompile(`^\d*\.\d{2}$`)
)

// Single-letter meal codes in the MLS column.
var mealCodes = map[byte]string{
	'M': "MEAL_MEAL",
	'L': "MEAL_LUNCH",
	'S': "MEAL_SNACK",
	'D': "MEAL_DINNER",
	'H': "MEAL_HOT_MEAL",
	'O': "MEAL_COLD_MEAL",
	'B': "MEAL_BREAKFAST",
	'N': "MEAL_NO_MEAL_SVC",
	'R': "MEAL_REFRESHMENTS",
	'C': "MEAL_ALCOHOL_NO_COST",
	'V': "MEAL_REFRESH_AT_COST",
	'F': "MEAL_FOOD_TO_PURCHASE",
	'P': "MEAL_ALCOHOL_PURCHASE",
	'K': "MEAL_CONTINENTAL_BREAKFAST",
	'G': "MEAL_FOOD_AND_ALCOHOL_AT_COST",
}

// Parser parses Sabre VI* dumps.
type Parser struct{}

func init() {
	registry.RegisterServiceInfo(gds.VendorSabre, Parser{})
}

// Parse folds the dump's lines into segments. When the header signature is
// missing the result is a success envelope with a nil payload, not an error
// list; that asymmetry with the itinerary parsers is deliberate and lets
// callers tell "not a VI* dump" from a failed one.
func (Parser) Parse(dump string) gds.ServiceInfoResult {
	var lines []string
	for _, line := range gds.SplitLines(dump) {
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 || !headerRe.MatchString(lines[0]) {
		return gds.OKServiceInfo((*ServiceInfo)(nil))
	}

	w := &writer{}
	for _, line := range lines[1:] {
		if departure, destination, ok := parseTerminalLine(line); ok {
			w.terminals(departure, destination)
			continue
		}
		if leg, segmentNumber, airline, flightNumber, ok := parseSegmentLine(line); ok {
			w.leg(leg, segmentNumber, airline, flightNumber)
		}
	}

	return gds.OKServiceInfo(&ServiceInfo{Segments: w.finish()})
}

// parseTerminalLine matches 'DEP-<text>', 'ARR-<text>' or both on one line.
func parseTerminalLine(line string) (departure, destination *gds.Terminal, ok bool) {
	trimmed := strings.TrimSpace(line)
	m := terminalLineRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, nil, false
	}

	depRaw := strings.TrimSpace(strings.TrimPrefix(m[1], "DEP-"))
	arrRaw := strings.TrimSpace(strings.TrimPrefix(m[2], "ARR-"))
	return terminalRef(depRaw), terminalRef(arrRaw), true
}

func terminalRef(raw string) *gds.Terminal {
	t := &gds.Terminal{Raw: raw}
	if m := terminalCodeRe.FindStringSubmatch(raw); m != nil {
		code := m[1]
		t.Parsed = &code
	}
	return t
}

func parseSegmentLine(line string) (leg *Leg, segmentNumber, airline, flightNumber string, ok bool) {
	fields := columns.SplitByPosition(line, segmentMask, segmentFields, true)

	valid := fields["whitespace"] == "" &&
		airportRe.MatchString(fields["departureAirport"]) &&
		airportRe.MatchString(fields["destinationAirport"]) &&
		flightDurationRe.MatchString(fields["flightDuration"])
	if !valid {
		return nil, "", "", "", false
	}

	leg = &Leg{
		DepartureDate:      parseDate(fields["departureDate"]),
		DepartureAirport:   fields["departureAirport"],
		DestinationAirport: fields["destinationAirport"],
		DepartureTime:      parseTime(fields["departureTime"]),
		DestinationTime:    parseTime(fields["destinationTime"]),
		Offset:             parseDayOffset(fields["offset"]),
		Meals:              parseMeals(fields["meals"]),
		Smoking:            fields["smoking"] == "Y",
		Aircraft:           fields["aircraft"],
		FlightDuration:     parseDuration(fields["flightDuration"]),
		Miles:              fields["miles"],
	}

	return leg, fields["segmentNumber"], fields["airline"], fields["flightNumber"], true
}

func parseDate(token string) *DateRef {
	pd, ok := decode.GdsPartialDate(token)
	if !ok {
		return nil
	}
	return &DateRef{Raw: token, Parsed: strconv.Itoa(pd.Month) + "-" + strconv.Itoa(pd.Day)}
}

func parseTime(token string) *TimeRef {
	parsed, ok := decode.GdsTime(token)
	if !ok {
		return nil
	}
	return &TimeRef{Raw: token, Parsed: parsed}
}

// parseDayOffset decodes the VI* arrival offset column. Sabre prints ¥ for a
// next-day arrival; the Galileo-only # and * tokens are not in this alphabet.
func parseDayOffset(token string) *int {
	token = strings.ReplaceAll(token, "¥", "+")

	var offset int
	switch token {
	case "":
		offset = 0
	case "|", "+":
		offset = 1
	case "-":
		offset = -1
	default:
		n, err := strconv.Atoi(token)
		if err != nil || n == 0 {
			return nil
		}
		offset = n
	}
	return &offset
}

func parseMeals(token string) Meals {
	parsed := []string{}
	for i := 0; i < len(token); i++ {
		if meal, ok := mealCodes[token[i]]; ok {
			parsed = append(parsed, meal)
		}
	}
	return Meals{Raw: token, Parsed: parsed}
}

// parseDuration renders the ELPD column ('.49', '8.30') as HH:MM.
func parseDuration(token string) *string {
	if token == "" {
		return nil
	}
	for len(token) < 5 {
		token = "0" + token
	}
	duration := strings.Replace(token, ".", ":", 1)
	return &duration
}

// writer folds leg lines into segments keyed by the presence of a segment
// number: a numbered line opens a new segment, an unnumbered one extends the
// current segment with another leg.
type writer struct {
	segments       []*Segment
	currentSegment *Segment
	currentLeg     *Leg
}

func (w *writer) flushLeg() {
	if w.currentLeg != nil && w.currentSegment != nil {
		w.currentSegment.Legs = append(w.currentSegment.Legs, w.currentLeg)
	}
	w.currentLeg = nil
}

func (w *writer) flushSegment(next *Segment) {
	w.flushLeg()
	if w.currentSegment != nil {
		w.currentSegment.HasPlaneChange = hasPlaneChange(w.currentSegment)
		w.segments = append(w.segments, w.currentSegment)
	}
	w.currentSegment = next
}

func (w *writer) leg(leg *Leg, segmentNumber, airline, flightNumber string) {
	if segmentNumber != "" {
		w.flushSegment(&Segment{
			SegmentNumber: segmentNumber,
			Airline:       airline,
			FlightNumber:  flightNumber,
		})
	} else {
		if w.currentSegment == nil {
			return // leg continuation before any segment line
		}
		w.flushLeg()
	}

	leg.DepartureTerminal = nil
	leg.DestinationTerminal = nil
	w.currentLeg = leg
}

func (w *writer) terminals(departure, destination *gds.Terminal) {
	if w.currentLeg == nil {
		return
	}
	w.currentLeg.DepartureTerminal = departure
	w.currentLeg.DestinationTerminal = destination
}

func (w *writer) finish() []*Segment {
	w.flushSegment(nil)
	if w.segments == nil {
		return []*Segment{}
	}
	return w.segments
}

// hasPlaneChange reports whether a segment's legs use more than one distinct
// non-empty aircraft code.
func hasPlaneChange(segment *Segment) bool {
	distinct := map[string]bool{}
	for _, leg := range segment.Legs {
		if leg.Aircraft != "" {
			distinct[leg.Aircraft] = true
		}
	}
	return len(distinct) > 1
}
