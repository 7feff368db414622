package memory

import "github.com/linemerge/propref/internal/domain/entity"

const (
	PartitionNFL = "NFL"
	PartitionNBA = "NBA"

	SportFootball   = "FOOTBALL"
	SportBasketball = "BASKETBALL"
)

// SeedEntities returns a small reference corpus for running without a
// database. Names are stored in already-normalized form.
func SeedEntities() []entity.Canonical {
	return []entity.Canonical{
		{ID: "sub-nfl-01", Kind: entity.KindSubject, Partition: PartitionNFL, CanonicalName: "Patrick Mahomes", AltNames: []string{"Pat Mahomes"}, Team: "KC", Position: "QB", Jersey: "15"},
		{ID: "sub-nfl-02", Kind: entity.KindSubject, Partition: PartitionNFL, CanonicalName: "Travis Kelce", Team: "KC", Position: "TE", Jersey: "87"},
		{ID: "sub-nfl-03", Kind: entity.KindSubject, Partition: PartitionNFL, CanonicalName: "Josh Allen", Team: "BUF", Position: "QB", Jersey: "17"},
		{ID: "sub-nba-01", Kind: entity.KindSubject, Partition: PartitionNBA, CanonicalName: "LeBron James", Team: "LAL", Position: "F", Jersey: "23"},
		{ID: "sub-nba-02", Kind: entity.KindSubject, Partition: PartitionNBA, CanonicalName: "Stephen Curry", AltNames: []string{"Steph Curry"}, Team: "GSW", Position: "G", Jersey: "30"},

		{ID: "mkt-fb-01", Kind: entity.KindMarket, Partition: SportFootball, CanonicalName: "Passing Yards", AltNames: []string{"Pass Yds"}},
		{ID: "mkt-fb-02", Kind: entity.KindMarket, Partition: SportFootball, CanonicalName: "Receiving Yards"},
		{ID: "mkt-bb-01", Kind: entity.KindMarket, Partition: SportBasketball, CanonicalName: "Points", AltNames: []string{"Pts"}},
		{ID: "mkt-bb-02", Kind: entity.KindMarket, Partition: SportBasketball, CanonicalName: "Three Pointers Made"},

		{ID: "team-nfl-01", Kind: entity.KindTeam, Partition: PartitionNFL, CanonicalName: "Kansas City Chiefs", AbbrName: "KC", FullName: "Kansas City Chiefs"},
		{ID: "team-nfl-02", Kind: entity.KindTeam, Partition: PartitionNFL, CanonicalName: "Buffalo Bills", AbbrName: "BUF", FullName: "Buffalo Bills"},
		{ID: "team-nba-01", Kind: entity.KindTeam, Partition: PartitionNBA, CanonicalName: "Los Angeles Lakers", AltNames: []string{"LA Lakers"}, AbbrName: "LAL", FullName: "Los Angeles Lakers"},

		{ID: "lg-fb-01", Kind: entity.KindLeague, Partition: SportFootball, CanonicalName: "NFL"},
		{ID: "lg-bb-01", Kind: entity.KindLeague, Partition: SportBasketball, CanonicalName: "NBA"},
	}
}
