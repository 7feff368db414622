package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/linemerge/propref/internal/domain/entity"
	qb "github.com/linemerge/propref/internal/platform/querybuilder"
)

type EntityRepository struct {
	db *sqlx.DB
}

var entitySelectColumns = []string{
	"id",
	"public_id",
	"kind",
	"partition",
	"canonical_name",
	"team",
	"position",
	"jersey",
	"abbr_name",
	"full_name",
	"created_at",
	"updated_at",
}

func NewEntityRepository(db *sqlx.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) LoadAll(ctx context.Context, kind entity.Kind) ([]entity.Canonical, error) {
	query, args, err := qb.Select(entitySelectColumns...).From("entities").
		Where(qb.Eq("kind", string(kind))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select entities query: %w", err)
	}

	var rows []entityTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select entities: %w", err)
	}

	const altNamesQuery = `
SELECT a.entity_public_id, a.alt_name
FROM entity_alt_names a
JOIN entities e ON e.public_id = a.entity_public_id
WHERE e.kind = $1
ORDER BY a.id`

	var altRows []entityAltNameTableModel
	if err := r.db.SelectContext(ctx, &altRows, altNamesQuery, string(kind)); err != nil {
		return nil, fmt.Errorf("select entity alt names: %w", err)
	}

	altNamesByEntity := make(map[string][]string, len(rows))
	for _, alt := range altRows {
		altNamesByEntity[alt.EntityPublicID] = append(altNamesByEntity[alt.EntityPublicID], alt.AltName)
	}

	out := make([]entity.Canonical, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.Canonical{
			ID:            row.PublicID,
			Kind:          entity.Kind(row.Kind),
			Partition:     row.Partition,
			CanonicalName: row.CanonicalName,
			AltNames:      altNamesByEntity[row.PublicID],
			Team:          nullStringToString(row.Team),
			Position:      nullStringToString(row.Position),
			Jersey:        nullStringToString(row.Jersey),
			AbbrName:      nullStringToString(row.AbbrName),
			FullName:      nullStringToString(row.FullName),
		})
	}

	return out, nil
}

func (r *EntityRepository) Insert(ctx context.Context, e entity.Canonical) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate entity: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx for entity insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
INSERT INTO entities (public_id, kind, partition, canonical_name, team, position, jersey, abbr_name, full_name)
VALUES (:public_id, :kind, :partition, :canonical_name, :team, :position, :jersey, :abbr_name, :full_name)`

	insertArgs := map[string]any{
		"public_id":      e.ID,
		"kind":           string(e.Kind),
		"partition":      e.Partition,
		"canonical_name": e.CanonicalName,
		"team":           nullableString(e.Team),
		"position":       nullableString(e.Position),
		"jersey":         nullableString(e.Jersey),
		"abbr_name":      nullableString(e.AbbrName),
		"full_name":      nullableString(e.FullName),
	}
	insertSQL, insertSQLArgs, err := sqlx.Named(insertQuery, insertArgs)
	if err != nil {
		return "", fmt.Errorf("bind insert entity query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(insertSQL), insertSQLArgs...); err != nil {
		if isUniqueViolation(err) {
			return "", entity.ErrDuplicateName
		}
		return "", fmt.Errorf("insert entity: %w", err)
	}

	for _, altName := range e.AltNames {
		if err := appendAltNameTx(ctx, tx, e.ID, altName); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return "", entity.ErrDuplicateName
		}
		return "", fmt.Errorf("commit entity insert: %w", err)
	}

	return e.ID, nil
}

func (r *EntityRepository) UpdateAttributes(ctx context.Context, id string, update entity.AttributeUpdate) error {
	if update.Empty() {
		return nil
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if update.Team != nil {
		args = append(args, nullableString(*update.Team))
		sets = append(sets, fmt.Sprintf("team = $%d", len(args)))
	}
	if update.Position != nil {
		args = append(args, nullableString(*update.Position))
		sets = append(sets, fmt.Sprintf("position = $%d", len(args)))
	}
	if update.Jersey != nil {
		args = append(args, nullableString(*update.Jersey))
		sets = append(sets, fmt.Sprintf("jersey = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE entities SET %s WHERE public_id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update entity attributes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity attributes rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}

	return nil
}

func (r *EntityRepository) AppendAltName(ctx context.Context, id string, name string) error {
	return appendAltNameTx(ctx, r.db, id, name)
}

// appendAltNameTx copies kind and partition from the owning entity row so
// the (kind, partition, alt_name) unique index covers every variant.
func appendAltNameTx(ctx context.Context, ext sqlx.ExtContext, id, name string) error {
	const query = `
INSERT INTO entity_alt_names (entity_public_id, kind, partition, alt_name)
SELECT public_id, kind, partition, $2
FROM entities
WHERE public_id = $1
ON CONFLICT (kind, partition, alt_name) DO NOTHING`

	if _, err := ext.ExecContext(ctx, query, id, name); err != nil {
		return fmt.Errorf("append entity alt name: %w", err)
	}

	return nil
}
