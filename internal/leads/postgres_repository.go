package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dapi/neurozeh-auto-service-bot/internal/dialog"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWith(q querier) *PostgresRepository {
	return &PostgresRepository{pool: q}
}

// Create inserts a new row. The estimate total is denormalized for
// reporting; the full breakdown lives in the notification.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}

	var total int
	if lead.Estimate != nil {
		total = lead.Estimate.Total
	}
	query := `
		INSERT INTO leads (id, user_id, username, message, make_model, year, mileage_km,
			tier, services, estimate_total, context, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.UserID,
		lead.Username,
		lead.Message,
		lead.MakeModel,
		lead.Year,
		lead.MileageKm,
		lead.Tier,
		lead.Services,
		total,
		lead.Context,
		lead.Confidence,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, user_id, username, message, make_model, year, mileage_km,
			tier, services, context, confidence, created_at
		FROM leads
		WHERE id = $1
	`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListByUser returns the user's leads, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*Lead, error) {
	query := `
		SELECT id, user_id, username, message, make_model, year, mileage_km,
			tier, services, context, confidence, created_at
		FROM leads
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.Username,
		&lead.Message,
		&lead.MakeModel,
		&lead.Year,
		&lead.MileageKm,
		&lead.Tier,
		&lead.Services,
		&lead.Context,
		&lead.Confidence,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.TierLabel = dialog.TierLabel(lead.Tier)
	return &lead, nil
}
