package postgres

import (
	"database/sql"
	"time"
)

type entityTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	Kind          string         `db:"kind"`
	Partition     string         `db:"partition"`
	CanonicalName string         `db:"canonical_name"`
	Team          sql.NullString `db:"team"`
	Position      sql.NullString `db:"position"`
	Jersey        sql.NullString `db:"jersey"`
	AbbrName      sql.NullString `db:"abbr_name"`
	FullName      sql.NullString `db:"full_name"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type entityAltNameTableModel struct {
	EntityPublicID string `db:"entity_public_id"`
	AltName        string `db:"alt_name"`
}
