package columns

import "testing"

func TestSplitByPosition(t *testing.T) {
	result := SplitByPosition(" 1 DL 789H", "NN AAFFFFB", map[rune]string{
		'N': "segmentNumber",
		'A': "airline",
		'F': "flightNumber",
		'B': "bookingClass",
	}, true)

	if result["segmentNumber"] != "1" {
		t.Errorf("segmentNumber = %q, want %q", result["segmentNumber"], "1")
	}
	if result["airline"] != "DL" {
		t.Errorf("airline = %q, want %q", result["airline"], "DL")
	}
	if result["flightNumber"] != "789" {
		t.Errorf("flightNumber = %q, want %q", result["flightNumber"], "789")
	}
	if result["bookingClass"] != "H" {
		t.Errorf("bookingClass = %q, want %q", result["bookingClass"], "H")
	}
}

func TestSplitByPosition_ShortSubject(t *testing.T) {
	result := SplitByPosition(" 1 DL", "NN AAFFFFB", map[rune]string{
		'N': "segmentNumber",
		'A': "airline",
		'F': "flightNumber",
		'B': "bookingClass",
	}, true)

	if result["airline"] != "DL" {
		t.Errorf("airline = %q, want %q", result["airline"], "DL")
	}
	if result["flightNumber"] != "" {
		t.Errorf("flightNumber = %q, want empty", result["flightNumber"])
	}
	if result["bookingClass"] != "" {
		t.Errorf("bookingClass = %q, want empty", result["bookingClass"])
	}
}

func TestSplitByPosition_NoTrim(t *testing.T) {
	result := SplitByPosition(" 1 DL  89H", "NN AAFFFFB", map[rune]string{
		'F': "flightNumber",
	}, false)

	if result["flightNumber"] != "  89" {
		t.Errorf("flightNumber = %q, want %q", result["flightNumber"], "  89")
	}
}

// Columns are counted in runes, not bytes; the currency sign in Sabre day
// offsets is multi-byte.
func TestSplitByPosition_MultibyteSubject(t *testing.T) {
	result := SplitByPosition(" 910A¥1 D", "QQQQQXX MM", map[rune]string{
		'Q': "destinationTime",
		'X': "offset",
		'M': "meals",
	}, true)

	if result["destinationTime"] != "910A" {
		t.Errorf("destinationTime = %q, want %q", result["destinationTime"], "910A")
	}
	if result["offset"] != "¥1" {
		t.Errorf("offset = %q, want %q", result["offset"], "¥1")
	}
	if result["meals"] != "D" {
		t.Errorf("meals = %q, want %q", result["meals"], "D")
	}
}
