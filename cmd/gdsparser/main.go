// Command-line entry point for the GDS dump parser.
//
// Note about input
// ----------------
// The parsers expect the raw text an agent copy-pasted from a GDS terminal
// window: fixed-column lines, mixed line endings, possibly with the leading
// space of the first line lost in the paste. The whole input is one dump.
//
// Use -archive to also store the parse outcome in a local SQLite archive; the
// query and stats commands read that archive back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gds_parser/internal/gds"
	_ "gds_parser/internal/parsers" // register all parsers via init()
	"gds_parser/internal/registry"
	"gds_parser/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "gdsparser - commands:")
	fmt.Fprintln(w, "  parse    - parse one GDS dump and output the result as JSON")
	fmt.Fprintln(w, "  query    - list dumps stored in a SQLite archive")
	fmt.Fprintln(w, "  stats    - print archive counters")
	fmt.Fprintln(w, "  vendors  - list supported GDS vendors per record kind")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  gdsparser parse -gds sabre -kind itinerary [-base-date 2020-08-01] [-input dump.txt] [-output out.json] [-pretty] [-archive dumps.db]")
	fmt.Fprintln(w, "  gdsparser query -archive dumps.db [-gds sabre] [-kind itinerary] [-failed] [-search JFK] [-limit 20] [-pretty]")
	fmt.Fprintln(w, "  gdsparser stats -archive dumps.db")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Input is the raw dump text (default: stdin). The entire input is one dump.")
	fmt.Fprintln(w, "  - -base-date anchors partial dates like 15SEP; it defaults to today.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "parse":
		runParse(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "vendors":
		runVendors(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	vendor := fs.String("gds", "", "GDS vendor: sabre, apollo or galileo")
	kind := fs.String("kind", "itinerary", "Record kind: itinerary or service-info")
	baseDate := fs.String("base-date", "", "Base date (YYYY-MM-DD) for resolving partial dates (default: today)")
	inPath := fs.String("input", "", "Input dump file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	archivePath := fs.String("archive", "", "SQLite archive to also store the result in")
	_ = fs.Parse(args)

	if *vendor == "" {
		fmt.Fprintln(os.Stderr, "Missing -gds")
		os.Exit(2)
	}
	if *baseDate == "" {
		*baseDate = time.Now().Format("2006-01-02")
	}

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Input read error: %v\n", err)
		os.Exit(1)
	}
	dump := string(raw)

	var success bool
	var result any
	var errs []string
	var segments int

	switch gds.RecordKind(*kind) {
	case gds.KindItinerary:
		res := registry.ParsePriceQuoteItinerary(gds.Vendor(*vendor), *baseDate, dump)
		success, errs = res.Success, res.Errors
		if res.Result != nil {
			result = res.Result
			segments = len(res.Result.Itinerary)
		}
	case gds.KindServiceInfo:
		res := registry.ParseServiceInfoDump(gds.Vendor(*vendor), dump)
		success, result, errs = res.Success, res.Result, res.Errors
	default:
		fmt.Fprintf(os.Stderr, "Unknown record kind: %s\n", *kind)
		os.Exit(2)
	}

	if *archivePath != "" {
		archive, err := storage.OpenArchive(*archivePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
			os.Exit(1)
		}
		defer archive.Close()
		_, err = archive.Insert(storage.InsertParams{
			ReceivedAt:   time.Now().UTC(),
			Vendor:       *vendor,
			Kind:         *kind,
			BaseDate:     *baseDate,
			Success:      success,
			SegmentCount: segments,
			RawText:      dump,
			Result:       result,
			Errors:       errs,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Archive insert failed: %v\n", err)
			os.Exit(1)
		}
	}

	envelope := map[string]any{"success": success}
	if result != nil {
		envelope["result"] = result
	}
	if len(errs) > 0 {
		envelope["errors"] = errs
	}
	writeJSON(envelope, *outPath, *pretty)

	if !success {
		os.Exit(1)
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	archivePath := fs.String("archive", "", "SQLite archive path")
	vendor := fs.String("gds", "", "Filter by GDS vendor")
	kind := fs.String("kind", "", "Filter by record kind")
	failed := fs.Bool("failed", false, "Only dumps that failed to parse")
	search := fs.String("search", "", "Full-text search over raw dump text")
	limit := fs.Int("limit", 20, "Maximum rows")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	_ = fs.Parse(args)

	if *archivePath == "" {
		fmt.Fprintln(os.Stderr, "Missing -archive")
		os.Exit(2)
	}
	archive, err := storage.OpenArchive(*archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	dumps, err := archive.Query(storage.QueryParams{
		Vendor:     *vendor,
		Kind:       *kind,
		FailedOnly: *failed,
		FullText:   *search,
		Limit:      *limit,
		OrderDesc:  true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	writeJSON(dumps, "", *pretty)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	archivePath := fs.String("archive", "", "SQLite archive path")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	_ = fs.Parse(args)

	if *archivePath == "" {
		fmt.Fprintln(os.Stderr, "Missing -archive")
		os.Exit(2)
	}
	archive, err := storage.OpenArchive(*archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	stats, err := archive.GetStats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
		os.Exit(1)
	}
	writeJSON(stats, "", *pretty)
}

func runVendors(args []string) {
	fs := flag.NewFlagSet("vendors", flag.ExitOnError)
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	_ = fs.Parse(args)

	out := map[string][]gds.Vendor{
		string(gds.KindItinerary):   registry.Default().Vendors(gds.KindItinerary),
		string(gds.KindServiceInfo): registry.Default().Vendors(gds.KindServiceInfo),
	}
	writeJSON(out, "", *pretty)
}

func writeJSON(v any, outPath string, pretty bool) {
	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	enc, err := marshalJSON(v, pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = w.Write(enc)
	if w == os.Stdout {
		_, _ = w.Write([]byte("\n"))
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
