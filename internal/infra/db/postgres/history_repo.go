package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS livestock_analyses (
  id            UUID         PRIMARY KEY,
  breed         TEXT         NOT NULL,
  breed_key     TEXT         NOT NULL,
  breed_matched BOOLEAN      NOT NULL DEFAULT FALSE,
  confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
  health_score  INTEGER      NOT NULL DEFAULT 0,
  outcome       TEXT         NOT NULL,
  image_url     TEXT         NOT NULL DEFAULT '',
  result_json   JSONB        NOT NULL,
  created_at    TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_livestock_analyses_created ON livestock_analyses (created_at DESC);`

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts or updates an analysis record
func (r *HistoryRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO livestock_analyses
  (id, breed, breed_key, breed_matched, confidence, health_score, outcome, image_url, result_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  image_url=EXCLUDED.image_url,
  result_json=EXCLUDED.result_json;
`
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.Breed), stringOrDash(a.BreedKey), a.BreedMatched,
		a.Confidence, a.HealthScore, string(a.Outcome), a.ImageURL, result, createdAt,
	)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, breed, breed_key, breed_matched, confidence, health_score, outcome, image_url, result_json::text, created_at
FROM livestock_analyses
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		var a domain.Record
		var outcome string
		if err := rows.Scan(&a.ID, &a.Breed, &a.BreedKey, &a.BreedMatched, &a.Confidence,
			&a.HealthScore, &outcome, &a.ImageURL, &a.Result, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Outcome = domain.Outcome(outcome)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Ping satisfies the health checker.
func (r *HistoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
