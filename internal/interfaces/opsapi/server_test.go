package opsapi

import (
	"context"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/matching"
	"github.com/linemerge/propref/internal/domain/review"
	"github.com/linemerge/propref/internal/infrastructure/repository/memory"
	"github.com/linemerge/propref/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.NewEntityRepository(memory.SeedEntities())
	resolver := usecase.NewResolutionService(
		store,
		matching.NewNormalizer(matching.DefaultMarketSynonyms()),
		matching.NewScorer(matching.DefaultWeights(), nil),
		matching.DefaultThresholds(),
		nil,
		nil,
		nil,
		nil,
		nil,
	)
	if err := resolver.WarmLoad(context.Background()); err != nil {
		t.Fatalf("warm load: %v", err)
	}

	resolver.Tracker().Append(review.Entry{
		Source:  "pinnacle",
		Kind:    entity.KindSubject,
		Mention: "Unknown Player",
		Outcome: review.OutcomePending,
		SeenAt:  time.Now().UTC(),
	})

	reviews := usecase.NewReviewService(resolver.Tracker(), nil, nil)
	return NewServer(resolver, reviews, nil)
}

func doRequest(s *Server, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI(path)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	s.handle(ctx)
	return ctx
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(s, "/healthz")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status: %d", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), `"ok"`) {
		t.Fatalf("unexpected body: %s", ctx.Response.Body())
	}
}

func TestServer_CacheStats(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(s, "/cache/stats")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected status: %d", ctx.Response.StatusCode())
	}

	var stats map[string]map[string]int
	if err := sonic.Unmarshal(ctx.Response.Body(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["subject"]["entities"] == 0 {
		t.Fatalf("expected warm-loaded subject cache, got %+v", stats)
	}
}

func TestServer_ReviewDumpAndBySource(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(s, "/review/dump")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected dump status: %d", ctx.Response.StatusCode())
	}
	if !strings.Contains(string(ctx.Response.Body()), "Unknown Player") {
		t.Fatalf("expected pending mention in dump, got %s", ctx.Response.Body())
	}

	ctx = doRequest(s, "/review/source/pinnacle")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("unexpected by-source status: %d", ctx.Response.StatusCode())
	}

	var entries []review.Entry
	if err := sonic.Unmarshal(ctx.Response.Body(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Source != "pinnacle" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestServer_NotFound(t *testing.T) {
	s := newTestServer(t)

	ctx := doRequest(s, "/nope")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unexpected status: %d", ctx.Response.StatusCode())
	}
}
