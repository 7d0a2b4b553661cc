package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"betbridge/internal/pkg/config"
)

// Ticket is one produced booking code, recorded for history queries.
type Ticket struct {
	TicketID    string
	Bookmaker   string
	BookingCode string
	TotalOdds   float64
	MatchCount  int
	TicketType  string // converted, booked
}

// Recorder persists produced tickets. Recording is best-effort: a failed
// write never fails the conversion that produced the ticket.
type Recorder interface {
	Record(ctx context.Context, t Ticket) error
	Close() error
}

// Ensure PostgresRecorder implements Recorder
var _ Recorder = (*PostgresRecorder)(nil)

// PostgresRecorder stores tickets in PostgreSQL
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(cfg config.PostgresConfig) (*PostgresRecorder, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	r := &PostgresRecorder{db: db}
	if err := r.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return r, nil
}

func (r *PostgresRecorder) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS split_tickets (
		id SERIAL PRIMARY KEY,
		ticket_id VARCHAR(100) NOT NULL,
		bookmaker VARCHAR(100) NOT NULL,
		booking_code VARCHAR(200) NOT NULL,
		total_odds DECIMAL(12, 2) NOT NULL,
		match_count INTEGER NOT NULL,
		ticket_type VARCHAR(50) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_split_tickets_ticket_id ON split_tickets (ticket_id);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *PostgresRecorder) Record(ctx context.Context, t Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO split_tickets (ticket_id, bookmaker, booking_code, total_odds, match_count, ticket_type)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.TicketID, t.Bookmaker, t.BookingCode, t.TotalOdds, t.MatchCount, t.TicketType)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

// NoopRecorder drops tickets; used when no DSN is configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Ticket) error { return nil }
func (NoopRecorder) Close() error                         { return nil }
