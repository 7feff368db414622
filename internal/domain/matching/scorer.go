package matching

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/linemerge/propref/internal/domain/entity"
)

// Weights tunes the similarity score. Defaults mirror values calibrated
// empirically against labeled mention data; deployments may override them
// through config.
type Weights struct {
	Team               float64
	TeamNoisy          float64
	Position           float64
	Jersey             float64
	NameDampingPerAttr float64
}

func DefaultWeights() Weights {
	return Weights{
		Team:               1.0,
		TeamNoisy:          0.75,
		Position:           0.75,
		Jersey:             2.0,
		NameDampingPerAttr: 0.0625,
	}
}

// Thresholds are the kind-specific acceptance cutoffs for fuzzy matches.
// A candidate distance strictly below the cutoff is treated as the same
// real-world entity under a new name variant.
type Thresholds struct {
	Subject float64
	Market  float64
	Team    float64
	League  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Subject: 4,
		Market:  3,
		Team:    3,
		League:  2,
	}
}

func (t Thresholds) For(kind entity.Kind) float64 {
	switch kind {
	case entity.KindSubject:
		return t.Subject
	case entity.KindMarket:
		return t.Market
	case entity.KindTeam:
		return t.Team
	case entity.KindLeague:
		return t.League
	default:
		return 0
	}
}

// Scorer computes a weighted distance between a mention and a candidate
// canonical entity. Pure and deterministic; never fails, even against
// empty names.
type Scorer struct {
	weights             Weights
	noisyTeamPartitions map[string]struct{}
}

// NewScorer builds a scorer. noisyTeamPartitions names partitions with
// unreliable team-naming conventions (collegiate leagues, typically) where
// the team term is down-weighted.
func NewScorer(weights Weights, noisyTeamPartitions []string) *Scorer {
	noisy := make(map[string]struct{}, len(noisyTeamPartitions))
	for _, p := range noisyTeamPartitions {
		noisy[normalizePartition(p)] = struct{}{}
	}
	return &Scorer{weights: weights, noisyTeamPartitions: noisy}
}

// Score expects the mention name already normalized. For subjects, every
// attribute both sides report corroborates the match: its edit distance is
// added with the configured weight and the name term is damped slightly,
// so a corroborated match tolerates more name drift. Markets, teams and
// leagues score by name distance alone.
func (s *Scorer) Score(m entity.Mention, candidate entity.Canonical) float64 {
	nameDist := float64(nameDistance(m.Name, candidate))
	if m.Kind != entity.KindSubject {
		return nameDist
	}

	attrsCompared := 0
	attrDist := 0.0

	if m.Context.Team != "" && candidate.Team != "" {
		weight := s.weights.Team
		if _, noisy := s.noisyTeamPartitions[candidate.Partition]; noisy {
			weight = s.weights.TeamNoisy
		}
		attrDist += float64(tokenDistance(m.Context.Team, candidate.Team)) * weight
		attrsCompared++
	}
	if m.Context.Position != "" && candidate.Position != "" {
		attrDist += float64(tokenDistance(m.Context.Position, candidate.Position)) * s.weights.Position
		attrsCompared++
	}
	if m.Context.Jersey != "" && candidate.Jersey != "" {
		attrDist += float64(tokenDistance(m.Context.Jersey, candidate.Jersey)) * s.weights.Jersey
		attrsCompared++
	}

	damping := 1.0 - s.weights.NameDampingPerAttr*float64(attrsCompared)
	if damping < 0 {
		damping = 0
	}

	return nameDist*damping + attrDist
}

// nameDistance is the minimum edit distance between the mention name and
// any of the candidate's names, canonical or alt.
func nameDistance(name string, candidate entity.Canonical) int {
	best := tokenDistance(name, candidate.CanonicalName)
	for _, alt := range candidate.AltNames {
		if d := tokenDistance(name, alt); d < best {
			best = d
		}
	}
	return best
}

func tokenDistance(a, b string) int {
	return levenshtein.ComputeDistance(strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b)))
}
