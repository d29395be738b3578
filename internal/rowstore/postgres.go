package rowstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores every sheet in a single generic table so the schema
// mirrors the spreadsheet it replaces: one row per record, fields as a
// loose document, a version column as the optimistic token.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the backing table when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet      text        NOT NULL,
    row_id     text        NOT NULL,
    version    bigint      NOT NULL,
    fields     jsonb       NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (sheet, row_id)
);
CREATE INDEX IF NOT EXISTS sheet_rows_sheet_created_idx ON sheet_rows (sheet, created_at);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("rowstore: ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) ReadAll(ctx context.Context, sheet string) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_id, version, fields FROM sheet_rows WHERE sheet = $1 ORDER BY created_at, row_id`,
		sheet)
	if err != nil {
		return nil, fmt.Errorf("rowstore: read %s: %w", sheet, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row    Row
			fields []byte
		)
		if err := rows.Scan(&row.ID, &row.Version, &fields); err != nil {
			return nil, fmt.Errorf("rowstore: scan %s: %w", sheet, err)
		}
		if err := json.Unmarshal(fields, &row.Fields); err != nil {
			return nil, fmt.Errorf("rowstore: decode %s row %s: %w", sheet, row.ID, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rowstore: read %s: %w", sheet, err)
	}
	return out, nil
}

func (s *Postgres) AppendRow(ctx context.Context, sheet string, row Row) (Row, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.Version = 1
	fields, err := json.Marshal(row.Fields)
	if err != nil {
		return Row{}, fmt.Errorf("rowstore: encode %s row: %w", sheet, err)
	}
	// ON CONFLICT DO NOTHING keeps re-delivered appends harmless under
	// the at-least-once contract.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sheet_rows (sheet, row_id, version, fields) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (sheet, row_id) DO NOTHING`,
		sheet, row.ID, row.Version, fields)
	if err != nil {
		return Row{}, fmt.Errorf("rowstore: append %s: %w", sheet, err)
	}
	return row, nil
}

func (s *Postgres) UpdateRow(ctx context.Context, sheet, rowID string, row Row) error {
	fields, err := json.Marshal(row.Fields)
	if err != nil {
		return fmt.Errorf("rowstore: encode %s row: %w", sheet, err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sheet_rows SET fields = $1, version = version + 1, updated_at = now()
		 WHERE sheet = $2 AND row_id = $3 AND version = $4`,
		fields, sheet, rowID, row.Version)
	if err != nil {
		return fmt.Errorf("rowstore: update %s row %s: %w", sheet, rowID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sheet_rows WHERE sheet = $1 AND row_id = $2)`,
		sheet, rowID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRowNotFound
		}
		return fmt.Errorf("rowstore: update %s row %s: %w", sheet, rowID, err)
	}
	if !exists {
		return ErrRowNotFound
	}
	return ErrVersionConflict
}
