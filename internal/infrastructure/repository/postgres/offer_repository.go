package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/linemerge/propref/internal/domain/offer"
	qb "github.com/linemerge/propref/internal/platform/querybuilder"
)

type offerTableModel struct {
	PublicID        string         `db:"public_id"`
	Source          string         `db:"source"`
	League          string         `db:"league"`
	SubjectPublicID sql.NullString `db:"subject_public_id"`
	MarketPublicID  sql.NullString `db:"market_public_id"`
	SubjectName     string         `db:"subject_name"`
	MarketName      string         `db:"market_name"`
	Line            float64        `db:"line"`
	OverPrice       int            `db:"over_price"`
	UnderPrice      int            `db:"under_price"`
	SeenAt          time.Time      `db:"seen_at"`
}

type OfferRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) InsertBatch(ctx context.Context, offers []offer.PropOffer) error {
	if len(offers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for offer batch insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("validate offer: %w", err)
		}

		row := offerTableModel{
			PublicID:        o.ID,
			Source:          o.Source,
			League:          o.League,
			SubjectPublicID: nullString(o.SubjectID),
			MarketPublicID:  nullString(o.MarketID),
			SubjectName:     o.SubjectName,
			MarketName:      o.MarketName,
			Line:            o.Line,
			OverPrice:       o.OverPrice,
			UnderPrice:      o.UnderPrice,
			SeenAt:          o.SeenAt,
		}
		insertSQL, insertArgs, err := qb.InsertModel("prop_offers", row, "ON CONFLICT (public_id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build insert offer query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit offer batch insert: %w", err)
	}

	return nil
}
