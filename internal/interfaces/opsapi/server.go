package opsapi

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/platform/logging"
	"github.com/linemerge/propref/internal/usecase"
)

// Server exposes the operator surface: health, cache stats and review
// queue dumps. It serves machine-to-machine traffic only, so it runs on
// fasthttp without any middleware stack.
type Server struct {
	resolver *usecase.ResolutionService
	reviews  *usecase.ReviewService
	logger   *logging.Logger
	server   *fasthttp.Server
}

func NewServer(resolver *usecase.ResolutionService, reviews *usecase.ReviewService, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		resolver: resolver,
		reviews:  reviews,
		logger:   logger,
	}
	s.server = &fasthttp.Server{
		Handler: s.handle,
		Name:    "propref-ops",
		GetOnly: true,
	}

	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	return s.server.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	switch {
	case path == "/healthz":
		s.handleHealth(ctx)
	case path == "/cache/stats":
		s.handleCacheStats(ctx)
	case path == "/review/dump":
		s.handleReviewDump(ctx)
	case strings.HasPrefix(path, "/review/source/"):
		s.handleReviewBySource(ctx, strings.TrimPrefix(path, "/review/source/"))
	default:
		s.writeJSON(ctx, fasthttp.StatusNotFound, []byte(`{"error":"not found"}`))
	}

	s.logger.InfoContext(ctx, "http_request",
		"http_path", path,
		"http_status", ctx.Response.StatusCode(),
	)
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	s.writeJSON(ctx, fasthttp.StatusOK, []byte(`{"status":"ok"}`))
}

func (s *Server) handleCacheStats(ctx *fasthttp.RequestCtx) {
	stats := make(map[string]any, len(entity.AllKinds))
	for kind := range entity.AllKinds {
		kindCache := s.resolver.Cache(kind)
		if kindCache == nil {
			continue
		}
		stats[string(kind)] = map[string]any{
			"entities":   kindCache.Len(),
			"partitions": len(kindCache.Partitions()),
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoded, err := sonic.Marshal(stats)
	if err != nil {
		s.writeError(ctx, fmt.Errorf("encode cache stats: %w", err))
		return
	}
	_, _ = buf.Write(encoded)
	s.writeJSON(ctx, fasthttp.StatusOK, buf.Bytes())
}

func (s *Server) handleReviewDump(ctx *fasthttp.RequestCtx) {
	encoded, err := s.reviews.DumpJSON(ctx)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, encoded)
}

func (s *Server) handleReviewBySource(ctx *fasthttp.RequestCtx, source string) {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		s.writeJSON(ctx, fasthttp.StatusBadRequest, []byte(`{"error":"source is required"}`))
		return
	}

	entries, err := s.reviews.ListBySource(ctx, source)
	if err != nil {
		s.writeError(ctx, err)
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoded, err := sonic.Marshal(entries)
	if err != nil {
		s.writeError(ctx, fmt.Errorf("encode review entries: %w", err))
		return
	}
	_, _ = buf.Write(encoded)
	s.writeJSON(ctx, fasthttp.StatusOK, buf.Bytes())
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	s.logger.ErrorContext(ctx, "ops request failed",
		"http_path", string(ctx.Path()),
		"error", err,
	)
	s.writeJSON(ctx, fasthttp.StatusInternalServerError, []byte(`{"error":"internal error"}`))
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body []byte) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	_, _ = ctx.Write(body)
}
