// Package ingest runs the NATS-facing side of the parser: it subscribes to
// dump subjects, parses each request through the registry and persists the
// outcome. Requests carrying a reply subject get the parse envelope back.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gds_parser/internal/gds"
	"gds_parser/internal/registry"
	"gds_parser/internal/storage"
)

// Request is one dump submitted for parsing. ID is assigned by the caller; a
// missing ID gets a generated one so re-deliveries stay traceable in storage.
type Request struct {
	ID       string `json:"id,omitempty"`
	Vendor   string `json:"gds"`
	Kind     string `json:"kind"`
	BaseDate string `json:"baseDate,omitempty"`
	Dump     string `json:"dump"`
}

// Response is the reply published for a request, the parse envelope plus the
// request ID so callers can correlate.
type Response struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Result  any      `json:"result,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Service parses incoming dump requests and writes results to the configured
// stores. Archive and Backend may each be nil; parsing and replies still work
// without persistence.
type Service struct {
	Log     *zap.SugaredLogger
	Reg     *registry.Registry
	Archive *storage.Archive
	Backend *storage.DB
}

// Process parses a single request. It never returns an error for unparsable
// dumps; those come back as a failure envelope like any other parse result.
func (s *Service) Process(ctx context.Context, req Request) Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// A re-delivered dump that already made it to the backend is answered
	// from storage instead of being parsed and written again.
	if s.Backend != nil {
		if rec, err := s.Backend.PG.GetDump(ctx, req.ID); err != nil {
			s.Log.Errorw("dump lookup failed", "id", req.ID, "error", err)
		} else if rec != nil {
			s.Log.Infow("dump already stored", "id", req.ID)
			return Response{ID: req.ID, Success: rec.Success, Result: rec.Result, Errors: rec.Errors}
		}
	}

	resp := Response{ID: req.ID}
	vendor := gds.Vendor(req.Vendor)

	var segments []*gds.Segment
	switch gds.RecordKind(req.Kind) {
	case gds.KindItinerary:
		res := s.Reg.ParsePriceQuoteItinerary(vendor, req.BaseDate, req.Dump)
		resp.Success = res.Success
		resp.Errors = res.Errors
		if res.Result != nil {
			resp.Result = res.Result
			segments = res.Result.Itinerary
		}
	case gds.KindServiceInfo:
		res := s.Reg.ParseServiceInfoDump(vendor, req.Dump)
		resp.Success = res.Success
		resp.Errors = res.Errors
		resp.Result = res.Result
	default:
		resp.Errors = []string{fmt.Sprintf("Unsupported record kind - %s", req.Kind)}
	}

	s.Log.Infow("parsed dump",
		"id", req.ID,
		"gds", req.Vendor,
		"kind", req.Kind,
		"success", resp.Success,
		"segments", len(segments),
	)

	s.persist(ctx, req, resp, segments)
	return resp
}

func (s *Service) persist(ctx context.Context, req Request, resp Response, segments []*gds.Segment) {
	now := time.Now().UTC()

	if s.Archive != nil {
		_, err := s.Archive.Insert(storage.InsertParams{
			ReceivedAt:   now,
			Vendor:       req.Vendor,
			Kind:         req.Kind,
			BaseDate:     req.BaseDate,
			Success:      resp.Success,
			SegmentCount: len(segments),
			RawText:      req.Dump,
			Result:       resp.Result,
			Errors:       resp.Errors,
		})
		if err != nil {
			s.Log.Errorw("archive insert failed", "id", req.ID, "error", err)
		}
	}

	if s.Backend == nil {
		return
	}

	rec := storage.DumpRecord{
		ID:         req.ID,
		Vendor:     req.Vendor,
		Kind:       req.Kind,
		BaseDate:   req.BaseDate,
		Success:    resp.Success,
		RawText:    req.Dump,
		Result:     resp.Result,
		Errors:     resp.Errors,
		ReceivedAt: now,
	}
	if err := s.Backend.PG.InsertDump(ctx, rec); err != nil {
		s.Log.Errorw("postgres insert failed", "id", req.ID, "error", err)
		return
	}
	if len(segments) == 0 {
		return
	}
	if err := s.Backend.PG.InsertSegments(ctx, req.ID, segments); err != nil {
		s.Log.Errorw("postgres segment insert failed", "id", req.ID, "error", err)
	}
	if err := s.Backend.CH.InsertSegments(ctx, req.ID, gds.Vendor(req.Vendor), now, segments); err != nil {
		s.Log.Errorw("clickhouse segment insert failed", "id", req.ID, "error", err)
	}
}

// StatsLoop logs backend counters at the given interval until the context
// ends. It is a no-op without a backend.
func (s *Service) StatsLoop(ctx context.Context, interval time.Duration) {
	if s.Backend == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logStats(ctx)
		}
	}
}

func (s *Service) logStats(ctx context.Context) {
	byVendor, err := s.Backend.PG.CountByVendor(ctx)
	if err != nil {
		s.Log.Errorw("vendor counts failed", "error", err)
		return
	}
	routes, err := s.Backend.CH.TopRoutes(ctx, 5)
	if err != nil {
		s.Log.Errorw("top routes failed", "error", err)
		return
	}
	pool := s.Backend.CH.Conn().Stats()
	s.Log.Infow("backend stats",
		"dumps_by_vendor", byVendor,
		"top_routes", routes,
		"ch_conns_open", pool.Open,
		"ch_conns_idle", pool.Idle,
	)
}

// Subscribe attaches the service to a NATS connection. Requests arrive on
// <root>.<gds>.<kind> subjects; the subscription is a queue subscription so
// multiple daemon instances share the stream.
func (s *Service) Subscribe(ctx context.Context, nc *nats.Conn, subjectRoot, queueGroup string) (*nats.Subscription, error) {
	subject := subjectRoot + ".>"
	sub, err := nc.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.Log.Infow("subscribed", "subject", subject, "queue", queueGroup)
	return sub, nil
}

func (s *Service) handle(ctx context.Context, msg *nats.Msg) {
	var req Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.Log.Warnw("bad request payload", "subject", msg.Subject, "error", err)
		s.reply(msg, Response{Errors: []string{"invalid request: " + err.Error()}})
		return
	}

	// Subject segments fill in fields the payload left blank, so thin
	// producers can publish the bare dump to gds.dumps.sabre.itinerary.
	vendor, kind := subjectParts(msg.Subject)
	if req.Vendor == "" {
		req.Vendor = vendor
	}
	if req.Kind == "" {
		req.Kind = kind
	}

	s.reply(msg, s.Process(ctx, req))
}

func (s *Service) reply(msg *nats.Msg, resp Response) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		s.Log.Errorw("marshal response failed", "id", resp.ID, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.Log.Errorw("respond failed", "id", resp.ID, "error", err)
	}
}

// subjectParts extracts the trailing <gds>.<kind> pair from a dump subject.
func subjectParts(subject string) (vendor, kind string) {
	parts := strings.Split(subject, ".")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}
