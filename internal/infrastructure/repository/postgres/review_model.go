package postgres

import "time"

type reviewEntryTableModel struct {
	ID           int64     `db:"id"`
	Source       string    `db:"source"`
	Kind         string    `db:"kind"`
	Partition    string    `db:"partition"`
	Mention      string    `db:"mention"`
	Outcome      string    `db:"outcome"`
	BestDistance float64   `db:"best_distance"`
	HasCandidate bool      `db:"has_candidate"`
	SeenAt       time.Time `db:"seen_at"`
}
