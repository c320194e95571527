package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultDBMaxOpenConns    = 4
	defaultDBConnMaxLifetime = 30 * time.Minute
	defaultDBPingTimeout     = 5 * time.Second
)

// PostgresSink stores entries in the council_knowledge table.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection pool for dsn. It does not connect until
// Init or Store is called.
func NewPostgresSink(dsn string) (*PostgresSink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("knowledge: dsn is required for the postgres driver")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultDBMaxOpenConns)
	db.SetConnMaxLifetime(defaultDBConnMaxLifetime)
	return &PostgresSink{db: db}, nil
}

// Init checks the connection and creates the table if it does not exist.
func (s *PostgresSink) Init(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultDBPingTimeout)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("knowledge: connect to postgres: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS council_knowledge (
			id TEXT PRIMARY KEY,
			council_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			vote_breakdown JSONB NOT NULL DEFAULT '{}'::JSONB,
			key_considerations TEXT[] NOT NULL DEFAULT '{}'::TEXT[],
			perspectives TEXT[] NOT NULL DEFAULT '{}'::TEXT[],
			rounds_completed INTEGER NOT NULL,
			total_cost DOUBLE PRECISION NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("knowledge: create table: %w", err)
	}
	return nil
}

// Store inserts e. A council that was already captured is left unchanged.
func (s *PostgresSink) Store(ctx context.Context, e Entry) error {
	votes, err := json.Marshal(e.VoteBreakdown)
	if err != nil {
		return fmt.Errorf("knowledge: encode vote breakdown: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO council_knowledge (
			id, council_id, topic, recommendation, confidence, vote_breakdown,
			key_considerations, perspectives, rounds_completed, total_cost, captured_at
		)
		VALUES ($1, $2, $3, $4, $5, $6::JSONB, $7, $8, $9, $10, $11)
		ON CONFLICT (council_id) DO NOTHING
	`, e.ID, e.CouncilID, e.Topic, e.Recommendation, e.Confidence, string(votes),
		e.KeyConsiderations, e.Perspectives, e.RoundsCompleted, e.TotalCost, e.CapturedAt)
	if err != nil {
		return fmt.Errorf("knowledge: insert entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, council_id, topic, recommendation, confidence, vote_breakdown::TEXT,
			key_considerations, perspectives, rounds_completed, total_cost, captured_at
		FROM council_knowledge
		ORDER BY captured_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge: query entries: %w", err)
	}
	defer rows.Close()

	types := pgtype.NewMap()
	var out []Entry
	for rows.Next() {
		var e Entry
		var votes string
		if err := rows.Scan(&e.ID, &e.CouncilID, &e.Topic, &e.Recommendation, &e.Confidence, &votes,
			types.SQLScanner(&e.KeyConsiderations), types.SQLScanner(&e.Perspectives), &e.RoundsCompleted, &e.TotalCost, &e.CapturedAt); err != nil {
			return nil, fmt.Errorf("knowledge: scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(votes), &e.VoteBreakdown); err != nil {
			return nil, fmt.Errorf("knowledge: decode vote breakdown: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the pool.
func (s *PostgresSink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
