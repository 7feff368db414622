package feeds

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linemerge/propref/internal/platform/logging"
	"github.com/linemerge/propref/internal/platform/resilience"
	"github.com/linemerge/propref/internal/usecase"
)

var errFeedTransient = crerr.New("feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	URLBySource    map[string]string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches prop-offer snapshots from per-bookmaker feed endpoints.
// Every source shares one circuit breaker: the feeds sit behind the same
// scraper gateway, so a hard outage there affects all of them.
type Client struct {
	httpClient     *http.Client
	urlBySource    map[string]string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	validate       *validator.Validate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	urlBySource := make(map[string]string, len(cfg.URLBySource))
	for source, rawURL := range cfg.URLBySource {
		urlBySource[strings.ToLower(strings.TrimSpace(source))] = strings.TrimRight(strings.TrimSpace(rawURL), "/")
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		urlBySource:    urlBySource,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

func (c *Client) FetchOffers(ctx context.Context, source string) ([]usecase.RawOffer, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	feedURL, ok := c.urlBySource[source]
	if !ok || feedURL == "" {
		return nil, fmt.Errorf("%w: no feed url configured for source %q", usecase.ErrInvalidInput, source)
	}

	var envelope offersEnvelope
	if err := c.doJSON(ctx, source, feedURL, &envelope); err != nil {
		return nil, fmt.Errorf("fetch offers source=%s: %w", source, err)
	}

	out := make([]usecase.RawOffer, 0, len(envelope.Offers))
	for _, item := range envelope.Offers {
		if err := c.validate.StructCtx(ctx, item); err != nil {
			c.logger.WarnContext(ctx, "feed offer dropped on validation",
				"source", source,
				"subject", item.Subject.Name,
				"error", err,
			)
			continue
		}
		out = append(out, usecase.RawOffer{
			SubjectName: item.Subject.Name,
			MarketName:  item.Market,
			TeamName:    item.Subject.Team,
			Position:    item.Subject.Position,
			Jersey:      item.Subject.Jersey,
			League:      firstNonEmpty(item.League, envelope.League),
			Sport:       firstNonEmpty(item.Sport, envelope.Sport),
			Line:        item.Line,
			OverPrice:   item.OverPrice,
			UnderPrice:  item.UnderPrice,
		})
	}

	return out, nil
}

func (c *Client) doJSON(ctx context.Context, source, fullURL string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "source", source, "state", c.breaker.State())
			return fmt.Errorf("%w: feed gateway is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isFeedCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFeedTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
				} else {
					return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "feed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isFeedCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
