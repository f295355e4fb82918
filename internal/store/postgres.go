package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/callaudit/internal/model"
)

// pgxPool is the minimal pool surface PostgresStore needs; pgxmock
// implements it for tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool creates a store from an existing pool (used by tests).
func NewPostgresFromPool(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	intent_type    TEXT NOT NULL,
	verdict_status TEXT NOT NULL,
	payload        JSONB NOT NULL,
	analyzed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(verdict_status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal analysis")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, session_id, intent_type, verdict_status, payload, analyzed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		analysis.ID,
		analysis.SessionID,
		string(analysis.Intent.Type),
		string(analysis.Verdict.Status),
		payload,
		analysis.AnalyzedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert analysis %s", analysis.ID)
}

func (s *PostgresStore) LatestAnalysis(ctx context.Context, sessionID string, maxAge time.Duration) (*model.Analysis, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM analyses
		 WHERE session_id = $1 AND analyzed_at > $2
		 ORDER BY analyzed_at DESC LIMIT 1`,
		sessionID, cutoff,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest analysis")
	}

	var analysis model.Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal analysis")
	}
	return &analysis, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT payload FROM analyses WHERE 1=1`
	var args []any

	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		query += ` AND session_id = $1`
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND verdict_status = $` + itoa(len(args))
	}
	query += ` ORDER BY analyzed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		var analysis model.Analysis
		if err := json.Unmarshal(payload, &analysis); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal analysis")
		}
		analyses = append(analyses, analysis)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM analyses WHERE analyzed_at <= $1`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete old analyses")
	}
	return int(tag.RowsAffected()), nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
