package matching

import (
	"strings"

	"github.com/linemerge/propref/internal/domain/entity"
)

// PartitionKey derives the corpus subdivision a mention is matched within:
// subjects and teams partition by league, markets and leagues by sport.
// Returns entity.PartitionUnknown when the collaborator could not supply
// enough context; that degrades matching to a full scan, which is a
// performance fallback, not an error.
func PartitionKey(kind entity.Kind, ctx entity.Context) string {
	switch kind {
	case entity.KindSubject, entity.KindTeam:
		return normalizePartition(ctx.League)
	case entity.KindMarket, entity.KindLeague:
		return normalizePartition(ctx.Sport)
	default:
		return entity.PartitionUnknown
	}
}

func normalizePartition(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
