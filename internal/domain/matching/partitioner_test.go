package matching

import (
	"testing"

	"github.com/linemerge/propref/internal/domain/entity"
)

func TestPartitionKey(t *testing.T) {
	t.Parallel()

	ctx := entity.Context{League: " nfl ", Sport: "football"}

	if got := PartitionKey(entity.KindSubject, ctx); got != "NFL" {
		t.Fatalf("subject partition = %q, want NFL", got)
	}
	if got := PartitionKey(entity.KindTeam, ctx); got != "NFL" {
		t.Fatalf("team partition = %q, want NFL", got)
	}
	if got := PartitionKey(entity.KindMarket, ctx); got != "FOOTBALL" {
		t.Fatalf("market partition = %q, want FOOTBALL", got)
	}
	if got := PartitionKey(entity.KindLeague, ctx); got != "FOOTBALL" {
		t.Fatalf("league partition = %q, want FOOTBALL", got)
	}
}

func TestPartitionKey_MissingContext(t *testing.T) {
	t.Parallel()

	if got := PartitionKey(entity.KindSubject, entity.Context{Sport: "football"}); got != entity.PartitionUnknown {
		t.Fatalf("expected unknown partition for subject without league, got %q", got)
	}
	if got := PartitionKey(entity.KindMarket, entity.Context{League: "NFL"}); got != entity.PartitionUnknown {
		t.Fatalf("expected unknown partition for market without sport, got %q", got)
	}
	if got := PartitionKey(entity.Kind("bogus"), entity.Context{League: "NFL"}); got != entity.PartitionUnknown {
		t.Fatalf("expected unknown partition for bogus kind, got %q", got)
	}
}
