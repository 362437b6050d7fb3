package storage

import (
	"path/filepath"
	"testing"
	"time"

	"gds_parser/internal/gds"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func TestArchive_InsertAndQuery(t *testing.T) {
	archive := openTestArchive(t)

	result := gds.OKItinerary(&gds.Itinerary{Itinerary: []*gds.Segment{
		{SegmentNumber: "1", Airline: "VS", FlightNumber: "26"},
	}})

	id, err := archive.Insert(InsertParams{
		ReceivedAt:   time.Now(),
		Vendor:       "sabre",
		Kind:         "itinerary",
		BaseDate:     "2020-07-25",
		Success:      true,
		SegmentCount: 1,
		RawText:      " 1 VS  26D 15SEP T JFKLHR SS1   815A  810P /DCVS /E",
		Result:       result,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == 0 {
		t.Fatal("Insert returned id 0")
	}

	dumps, err := archive.Query(QueryParams{Vendor: "sabre"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(dumps) != 1 {
		t.Fatalf("len(dumps) = %d, want 1", len(dumps))
	}

	d := dumps[0]
	if d.Vendor != "sabre" || d.Kind != "itinerary" {
		t.Errorf("dump = %q/%q, want sabre/itinerary", d.Vendor, d.Kind)
	}
	if !d.Success || d.SegmentCount != 1 {
		t.Errorf("success = %v, segments = %d, want true/1", d.Success, d.SegmentCount)
	}
	if d.BaseDate != "2020-07-25" {
		t.Errorf("BaseDate = %q, want 2020-07-25", d.BaseDate)
	}
	if d.ResultJSON == "" {
		t.Error("ResultJSON is empty")
	}
}

func TestArchive_QueryFailedOnly(t *testing.T) {
	archive := openTestArchive(t)

	_, err := archive.Insert(InsertParams{
		ReceivedAt: time.Now(),
		Vendor:     "apollo",
		Kind:       "itinerary",
		Success:    true,
		RawText:    "GOOD DUMP",
		Result:     gds.OKItinerary(&gds.Itinerary{Itinerary: []*gds.Segment{}}),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err = archive.Insert(InsertParams{
		ReceivedAt: time.Now(),
		Vendor:     "apollo",
		Kind:       "itinerary",
		Success:    false,
		RawText:    "BAD DUMP",
		Result:     gds.FailedItinerary([]string{"Cannot parse line [BAD DUMP]"}),
		Errors:     []string{"Cannot parse line [BAD DUMP]"},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dumps, err := archive.Query(QueryParams{FailedOnly: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(dumps) != 1 {
		t.Fatalf("len(dumps) = %d, want 1", len(dumps))
	}
	if dumps[0].RawText != "BAD DUMP" {
		t.Errorf("RawText = %q, want BAD DUMP", dumps[0].RawText)
	}
	if dumps[0].Errors != "Cannot parse line [BAD DUMP]" {
		t.Errorf("Errors = %q", dumps[0].Errors)
	}
}

func TestArchive_FullTextSearch(t *testing.T) {
	archive := openTestArchive(t)

	_, err := archive.Insert(InsertParams{
		ReceivedAt: time.Now(),
		Vendor:     "sabre",
		Kind:       "itinerary",
		Success:    true,
		RawText:    " 1 VS  26D 15SEP T JFKLHR SS1",
		Result:     gds.OKItinerary(&gds.Itinerary{Itinerary: []*gds.Segment{}}),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dumps, err := archive.Query(QueryParams{FullText: "JFKLHR"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(dumps) != 1 {
		t.Fatalf("len(dumps) = %d, want 1", len(dumps))
	}

	dumps, err = archive.Query(QueryParams{FullText: "AMSTERDAM"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(dumps) != 0 {
		t.Errorf("len(dumps) = %d, want 0", len(dumps))
	}
}

func TestArchive_GetByID(t *testing.T) {
	archive := openTestArchive(t)

	id, err := archive.Insert(InsertParams{
		ReceivedAt: time.Now(),
		Vendor:     "galileo",
		Kind:       "service-info",
		Success:    true,
		RawText:    "DUMP",
		Result:     gds.OKServiceInfo(nil),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	d, err := archive.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if d == nil {
		t.Fatal("GetByID returned nil")
	}
	if d.Vendor != "galileo" || d.Kind != "service-info" {
		t.Errorf("dump = %q/%q, want galileo/service-info", d.Vendor, d.Kind)
	}

	missing, err := archive.GetByID(id + 1000)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID for missing id = %+v, want nil", missing)
	}
}

func TestArchive_GetStats(t *testing.T) {
	archive := openTestArchive(t)

	for _, vendor := range []string{"sabre", "sabre", "apollo"} {
		_, err := archive.Insert(InsertParams{
			ReceivedAt: time.Now(),
			Vendor:     vendor,
			Kind:       "itinerary",
			Success:    vendor == "sabre",
			RawText:    "DUMP",
			Result:     gds.OKItinerary(&gds.Itinerary{Itinerary: []*gds.Segment{}}),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	stats, err := archive.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalDumps != 3 {
		t.Errorf("TotalDumps = %d, want 3", stats.TotalDumps)
	}
	if stats.ByVendor["sabre"] != 2 || stats.ByVendor["apollo"] != 1 {
		t.Errorf("ByVendor = %v", stats.ByVendor)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
}
