package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/callaudit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	intent_type    TEXT NOT NULL,
	verdict_status TEXT NOT NULL,
	payload        TEXT NOT NULL,
	analyzed_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses(session_id, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(verdict_status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, analysis *model.Analysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, session_id, intent_type, verdict_status, payload, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		analysis.ID,
		analysis.SessionID,
		string(analysis.Intent.Type),
		string(analysis.Verdict.Status),
		string(payload),
		analysis.AnalyzedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert analysis %s", analysis.ID)
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, sessionID string, maxAge time.Duration) (*model.Analysis, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analyses
		 WHERE session_id = ? AND analyzed_at > ?
		 ORDER BY analyzed_at DESC LIMIT 1`,
		sessionID, cutoff,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest analysis")
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
	}
	return &analysis, nil
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT payload FROM analyses WHERE 1=1`
	var args []any

	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.Status != "" {
		query += ` AND verdict_status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY analyzed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		var analysis model.Analysis
		if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
		}
		analyses = append(analyses, analysis)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analyses WHERE analyzed_at <= ?`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old analyses")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
