package registry_test

import (
	"testing"

	"gds_parser/internal/gds"
	_ "gds_parser/internal/parsers"
	"gds_parser/internal/registry"
)

func TestParsePriceQuoteItinerary_UnsupportedVendor(t *testing.T) {
	result := registry.ParsePriceQuoteItinerary("amadeus", "2020-07-25", "WHATEVER")
	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Unsupported GDS - amadeus" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestParseServiceInfoDump_UnsupportedVendor(t *testing.T) {
	result := registry.ParseServiceInfoDump("amadeus", "WHATEVER")
	if result.Success {
		t.Fatal("Success = true, want false")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "Unsupported GDS - amadeus" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestParsePriceQuoteItinerary_DispatchesAllVendors(t *testing.T) {
	cases := []struct {
		vendor gds.Vendor
		dump   string
	}{
		{gds.VendorSabre, " 1 VS  26D 15SEP T JFKLHR SS1   815A  810P /DCVS /E"},
		{gds.VendorApollo, " 1 CZ 328T 21APR LAXCAN HK1  1150P  540A2*      TH/SA   E"},
		{gds.VendorGalileo, " 2. LH  595 L  17MAY PHCFRA HS1   755P # 525A O          TH  1"},
	}

	for _, tc := range cases {
		result := registry.ParsePriceQuoteItinerary(tc.vendor, "2020-08-01", tc.dump)
		if !result.Success {
			t.Errorf("%s: Success = false, errors: %v", tc.vendor, result.Errors)
			continue
		}
		if len(result.Result.Itinerary) != 1 {
			t.Errorf("%s: len = %d, want 1", tc.vendor, len(result.Result.Itinerary))
		}
	}
}

// the preprocessor restores the leading space an agent's paste dropped
func TestParsePriceQuoteItinerary_FixesFirstLine(t *testing.T) {
	result := registry.ParsePriceQuoteItinerary(gds.VendorSabre, "2020-07-25",
		"1 VS  26D 15SEP T JFKLHR SS1   815A  810P /DCVS /E")
	if !result.Success {
		t.Fatalf("Success = false, errors: %v", result.Errors)
	}
	if result.Result.Itinerary[0].Airline != "VS" {
		t.Errorf("Airline = %q, want VS", result.Result.Itinerary[0].Airline)
	}
}

func TestParseServiceInfoDump_DispatchesAllVendors(t *testing.T) {
	apolloDump := " 1 AA 3018  L SMFLAX  ERD  FOOD TO PURCHASE                1:30"
	for _, vendor := range []gds.Vendor{gds.VendorApollo, gds.VendorGalileo} {
		result := registry.ParseServiceInfoDump(vendor, apolloDump)
		if !result.Success {
			t.Errorf("%s: Success = false, errors: %v", vendor, result.Errors)
		}
		if result.Result == nil {
			t.Errorf("%s: Result is nil", vendor)
		}
	}

	sabreDump := "   FLIGHT  DATE  SEGMENT DPTR  ARVL    MLS  EQP  ELPD MILES SM \n" +
		" 1 AA*4030 13NOV BWI PHL  420P  509P        CRJ   .49    91  N "
	result := registry.ParseServiceInfoDump(gds.VendorSabre, sabreDump)
	if !result.Success {
		t.Fatalf("sabre: Success = false, errors: %v", result.Errors)
	}
}

func TestVendors(t *testing.T) {
	itinerary := registry.Default().Vendors(gds.KindItinerary)
	if len(itinerary) != 3 {
		t.Errorf("itinerary vendors = %v, want 3", itinerary)
	}
	serviceInfo := registry.Default().Vendors(gds.KindServiceInfo)
	if len(serviceInfo) != 3 {
		t.Errorf("service-info vendors = %v, want 3", serviceInfo)
	}
}
