package feeds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/linemerge/propref/internal/platform/resilience"
	"github.com/linemerge/propref/internal/usecase"
)

const sampleFeedBody = `{
  "source": "draftkings",
  "league": "NFL",
  "sport": "football",
  "offers": [
    {
      "player": {"name": "P. MAHOMES", "team": "KC", "position": "QB", "jersey": "15"},
      "market": "Pass Yds",
      "line": 285.5,
      "over_price": -115,
      "under_price": -105
    },
    {
      "player": {"name": ""},
      "market": "Pass Yds",
      "line": 10
    },
    {
      "league": "NBA",
      "sport": "basketball",
      "player": {"name": "Steph Curry", "team": "GSW"},
      "market": "Points",
      "line": 28.5,
      "over_price": -110,
      "under_price": -110
    }
  ]
}`

func TestFetchOffers_DecodesAndValidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeedBody))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		URLBySource: map[string]string{"DraftKings": server.URL},
	})

	offers, err := client.FetchOffers(context.Background(), "draftkings")
	if err != nil {
		t.Fatalf("fetch offers: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers after validation, got %d", len(offers))
	}

	first := offers[0]
	if first.SubjectName != "P. MAHOMES" {
		t.Fatalf("unexpected subject name: %q", first.SubjectName)
	}
	if first.League != "NFL" {
		t.Fatalf("expected envelope league fallback, got %q", first.League)
	}
	if first.Line != 285.5 || first.OverPrice != -115 {
		t.Fatalf("unexpected prices: line=%v over=%d", first.Line, first.OverPrice)
	}

	second := offers[1]
	if second.League != "NBA" || second.Sport != "basketball" {
		t.Fatalf("expected per-offer league/sport to win, got %q/%q", second.League, second.Sport)
	}
}

func TestFetchOffers_UnknownSource(t *testing.T) {
	client := NewClient(ClientConfig{URLBySource: map[string]string{}})

	if _, err := client.FetchOffers(context.Background(), "pinnacle"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFetchOffers_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"offers": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		URLBySource: map[string]string{"fanduel": server.URL},
		MaxRetries:  1,
	})

	offers, err := client.FetchOffers(context.Background(), "fanduel")
	if err != nil {
		t.Fatalf("fetch offers: %v", err)
	}
	if len(offers) != 0 {
		t.Fatalf("expected no offers, got %d", len(offers))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry after 503, calls=%d", calls.Load())
	}
}

func TestFetchOffers_NonRetryableStatusFailsFast(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		URLBySource: map[string]string{"caesars": server.URL},
		MaxRetries:  3,
	})

	if _, err := client.FetchOffers(context.Background(), "caesars"); err == nil {
		t.Fatalf("expected error on 401")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry on 401, calls=%d", calls.Load())
	}
}

func TestFetchOffers_CircuitOpensAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		URLBySource: map[string]string{"betmgm": server.URL},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})

	if _, err := client.FetchOffers(context.Background(), "betmgm"); err == nil {
		t.Fatalf("expected first fetch to fail")
	}
	if _, err := client.FetchOffers(context.Background(), "betmgm"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected circuit rejection, got %v", err)
	}
}
