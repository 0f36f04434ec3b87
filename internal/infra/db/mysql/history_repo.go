package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/livestock-vision/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS livestock_analyses (
  id            VARCHAR(36)  NOT NULL PRIMARY KEY,
  breed         VARCHAR(128) NOT NULL,
  breed_key     VARCHAR(128) NOT NULL,
  breed_matched BOOLEAN      NOT NULL DEFAULT FALSE,
  confidence    DOUBLE       NOT NULL DEFAULT 0,
  health_score  INT          NOT NULL DEFAULT 0,
  outcome       VARCHAR(32)  NOT NULL,
  image_url     VARCHAR(512) NOT NULL DEFAULT '',
  result_json   JSON         NOT NULL,
  created_at    DATETIME(3)  NOT NULL,
  INDEX idx_livestock_analyses_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

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

// Save inserts an analysis record
func (r *HistoryRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO livestock_analyses
  (id, breed, breed_key, breed_matched, confidence, health_score, outcome, image_url, result_json, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  image_url=VALUES(image_url), result_json=VALUES(result_json);
`
	result := a.Result
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.Breed), stringOrDash(a.BreedKey), a.BreedMatched,
		a.Confidence, a.HealthScore, string(a.Outcome), a.ImageURL, result, createdAt.UTC(),
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
SELECT id, breed, breed_key, breed_matched, confidence, health_score, outcome, image_url, result_json, created_at
FROM livestock_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
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
