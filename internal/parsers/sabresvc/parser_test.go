package sabresvc

import (
	"strings"
	"testing"
)

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParser_Parse(t *testing.T) {
	dump := strings.Join([]string{
		"   FLIGHT  DATE  SEGMENT DPTR  ARVL    MLS  EQP  ELPD MILES SM ",
		" 1 AA*4030 13NOV BWI PHL  420P  509P        CRJ   .49    91  N ",
		"                                ARR-TERMINAL F                 ",
		"*BWI-PHL OPERATED BY AIR WISCONSIN AS AMERICAN EAGLE",
		"ONEWORLD",
		" 2 AA  718 13NOV PHL FCO  640P  910A¥1 DK   333  8.30  4368  N ",
		"DEP-TERMINAL A                  ARR-TERMINAL 3                 ",
		"ONEWORLD",
		" 3 AA*6697 23NOV FCO LHR  800A  950A   M    320  2.50   894  N ",
		"DEP-TERMINAL 3                  ARR-TERMINAL 5                 ",
		"*FCO-LHR OPERATED BY BRITISH AIRWAYS",
		"ONEWORLD",
		" 4 AA*6174 23NOV LHR BWI  140P  455P   M    787  8.15  3641  N ",
		"DEP-TERMINAL 5                                                 ",
		"*LHR-BWI OPERATED BY BRITISH AIRWAYS",
		"ONEWORLD",
	}, "\n")

	result := Parser{}.Parse(dump)
	if !result.Success {
		t.Fatalf("Success = false, errors: %v", result.Errors)
	}

	info, ok := result.Result.(*ServiceInfo)
	if !ok || info == nil {
		t.Fatalf("Result is %T (%v), want *ServiceInfo", result.Result, result.Result)
	}
	if len(info.Segments) != 4 {
		t.Fatalf("len(segments) = %d, want 4", len(info.Segments))
	}

	first := info.Segments[0]
	if first.SegmentNumber != "1" || first.Airline != "AA" || first.FlightNumber != "4030" {
		t.Errorf("segment = %q %q %q, want 1 AA 4030", first.SegmentNumber, first.Airline, first.FlightNumber)
	}
	if len(first.Legs) != 1 {
		t.Fatalf("len(legs) = %d, want 1", len(first.Legs))
	}

	leg := first.Legs[0]
	if leg.DepartureDate == nil || leg.DepartureDate.Raw != "13NOV" || leg.DepartureDate.Parsed != "11-13" {
		t.Errorf("DepartureDate = %+v, want 13NOV/11-13", leg.DepartureDate)
	}
	if leg.DepartureAirport != "BWI" || leg.DestinationAirport != "PHL" {
		t.Errorf("airports = %q/%q, want BWI/PHL", leg.DepartureAirport, leg.DestinationAirport)
	}
	if leg.DepartureTime == nil || leg.DepartureTime.Raw != "420P" || leg.DepartureTime.Parsed != "16:20" {
		t.Errorf("DepartureTime = %+v, want 420P/16:20", leg.DepartureTime)
	}
	if leg.DestinationTime == nil || leg.DestinationTime.Raw != "509P" || leg.DestinationTime.Parsed != "17:09" {
		t.Errorf("DestinationTime = %+v, want 509P/17:09", leg.DestinationTime)
	}
	if leg.Offset == nil || *leg.Offset != 0 {
		t.Errorf("Offset = %v, want 0", leg.Offset)
	}
	if leg.Meals.Raw != "" || len(leg.Meals.Parsed) != 0 {
		t.Errorf("Meals = %+v, want empty", leg.Meals)
	}
	if leg.Smoking {
		t.Error("Smoking = true, want false")
	}
	if leg.Aircraft != "CRJ" {
		t.Errorf("Aircraft = %q, want CRJ", leg.Aircraft)
	}
	if deref(leg.FlightDuration) != "00:49" {
		t.Errorf("FlightDuration = %q, want 00:49", deref(leg.FlightDuration))
	}
	if leg.Miles != "91" {
		t.Errorf("Miles = %q, want 91", leg.Miles)
	}
	// ARR-only terminal line: the departure side comes back raw-empty
	if leg.DepartureTerminal == nil || leg.DepartureTerminal.Raw != "" || leg.DepartureTerminal.Parsed != nil {
		t.Errorf("DepartureTerminal = %+v, want empty raw", leg.DepartureTerminal)
	}
	if leg.DestinationTerminal == nil || leg.DestinationTerminal.Raw != "TERMINAL F" || deref(leg.DestinationTerminal.Parsed) != "F" {
		t.Errorf("DestinationTerminal = %+v, want TERMINAL F", leg.DestinationTerminal)
	}

	second := info.Segments[1]
	if second.FlightNumber != "718" {
		t.Errorf("second FlightNumber = %q, want 718", second.FlightNumber)
	}
	overnight := second.Legs[0]
	if overnight.Offset == nil || *overnight.Offset != 1 {
		t.Errorf("overnight Offset = %v, want 1", overnight.Offset)
	}
	if overnight.Meals.Raw != "DK" {
		t.Errorf("overnight Meals.Raw = %q, want DK", overnight.Meals.Raw)
	}
	wantMeals := []string{"MEAL_DINNER", "MEAL_CONTINENTAL_BREAKFAST"}
	if len(overnight.Meals.Parsed) != 2 || overnight.Meals.Parsed[0] != wantMeals[0] || overnight.Meals.Parsed[1] != wantMeals[1] {
		t.Errorf("overnight Meals.Parsed = %v, want %v", overnight.Meals.Parsed, wantMeals)
	}
	if deref(overnight.FlightDuration) != "08:30" {
		t.Errorf("overnight FlightDuration = %q, want 08:30", deref(overnight.FlightDuration))
	}
	if overnight.DepartureTerminal == nil || deref(overnight.DepartureTerminal.Parsed) != "A" {
		t.Errorf("overnight DepartureTerminal = %+v, want A", overnight.DepartureTerminal)
	}
	if overnight.DestinationTerminal == nil || deref(overnight.DestinationTerminal.Parsed) != "3" {
		t.Errorf("overnight DestinationTerminal = %+v, want 3", overnight.DestinationTerminal)
	}

	fourth := info.Segments[3]
	lastLeg := fourth.Legs[0]
	// DEP-only terminal line
	if lastLeg.DepartureTerminal == nil || deref(lastLeg.DepartureTerminal.Parsed) != "5" {
		t.Errorf("fourth DepartureTerminal = %+v, want 5", lastLeg.DepartureTerminal)
	}
	if lastLeg.DestinationTerminal == nil || lastLeg.DestinationTerminal.Raw != "" || lastLeg.DestinationTerminal.Parsed != nil {
		t.Errorf("fourth DestinationTerminal = %+v, want empty raw", lastLeg.DestinationTerminal)
	}

	for i, segment := range info.Segments {
		if segment.HasPlaneChange {
			t.Errorf("segment %d HasPlaneChange = true, want false", i+1)
		}
	}
}

func TestParser_Parse_MultiLegSegment(t *testing.T) {
	dump := strings.Join([]string{
		"   FLIGHT  DATE  SEGMENT DPTR  ARVL    MLS  EQP  ELPD MILES SM ",
		" 1 PR  127 24NOV JFK YVR 1155P  310A¥1 D    773  6.15  2424  N ",
		"                 YVR JFK  200P 1010P    H   744  5.10  2424  N",
	}, "\n")

	result := Parser{}.Parse(dump)
	if !result.Success {
		t.Fatalf("Success = false, errors: %v", result.Errors)
	}

	info := result.Result.(*ServiceInfo)
	if len(info.Segments) != 1 {
		t.Fatalf("len(segments) = %d, want 1", len(info.Segments))
	}

	segment := info.Segments[0]
	if segment.SegmentNumber != "1" || segment.Airline != "PR" || segment.FlightNumber != "127" {
		t.Errorf("segment = %q %q %q, want 1 PR 127", segment.SegmentNumber, segment.Airline, segment.FlightNumber)
	}
	if len(segment.Legs) != 2 {
		t.Fatalf("len(legs) = %d, want 2", len(segment.Legs))
	}

	first, second := segment.Legs[0], segment.Legs[1]
	if first.DepartureAirport != "JFK" || first.DestinationAirport != "YVR" {
		t.Errorf("first leg = %q/%q, want JFK/YVR", first.DepartureAirport, first.DestinationAirport)
	}
	if first.Offset == nil || *first.Offset != 1 {
		t.Errorf("first leg Offset = %v, want 1", first.Offset)
	}
	if second.DepartureAirport != "YVR" || second.DestinationAirport != "JFK" {
		t.Errorf("second leg = %q/%q, want YVR/JFK", second.DepartureAirport, second.DestinationAirport)
	}
	// the continuation line has no date column
	if second.DepartureDate != nil {
		t.Errorf("second leg DepartureDate = %+v, want nil", second.DepartureDate)
	}
	if second.DepartureTime == nil || second.DepartureTime.Parsed != "14:00" {
		t.Errorf("second leg DepartureTime = %+v, want 14:00", second.DepartureTime)
	}
	if second.Offset == nil || *second.Offset != 0 {
		t.Errorf("second leg Offset = %v, want 0", second.Offset)
	}
	if second.Meals.Raw != "H" || len(second.Meals.Parsed) != 1 || second.Meals.Parsed[0] != "MEAL_HOT_MEAL" {
		t.Errorf("second leg Meals = %+v, want H/MEAL_HOT_MEAL", second.Meals)
	}

	// 773 then 744 across the legs
	if !segment.HasPlaneChange {
		t.Error("HasPlaneChange = false, want true")
	}
}

func TestParser_Parse_NotAServiceInfoDump(t *testing.T) {
	result := Parser{}.Parse("SOMETHING ELSE ENTIRELY\nWITH MORE LINES")
	if !result.Success {
		t.Fatalf("Success = false, errors: %v", result.Errors)
	}

	info, ok := result.Result.(*ServiceInfo)
	if !ok {
		t.Fatalf("Result is %T, want *ServiceInfo", result.Result)
	}
	if info != nil {
		t.Errorf("payload = %+v, want nil", info)
	}
}

func TestParser_Parse_EmptyDump(t *testing.T) {
	result := Parser{}.Parse("")
	if !result.Success {
		t.Fatal("Success = false, want true")
	}
	if info := result.Result.(*ServiceInfo); info != nil {
		t.Errorf("payload = %+v, want nil", info)
	}
}
