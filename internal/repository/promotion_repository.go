package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promo-engine/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// postgresStore implements PromotionStore using PostgreSQL. The code
// uniqueness index is a dedicated table with a primary-key constraint, so
// Reserve is linearizable across service instances.
type postgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed promotion store.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) PromotionStore {
	return &postgresStore{
		pool:   pool,
		logger: logger.With().Str("store", "postgres").Logger(),
	}
}

const promotionColumns = `
	id, name, code, type, value, active, start_date, end_date,
	usage_count, usage_limit, usage_limit_per_customer, min_order_value,
	customer_groups, product_categories, first_time_only,
	created_at, updated_at
`

// Reserve atomically claims a code in the promotion_codes table.
func (s *postgresStore) Reserve(ctx context.Context, code string) error {
	query := `
		INSERT INTO promotion_codes (code)
		VALUES ($1)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, code)
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to reserve code")
		return fmt.Errorf("failed to reserve code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicateCode
	}
	return nil
}

// Release frees a reserved code.
func (s *postgresStore) Release(ctx context.Context, code string) error {
	query := `DELETE FROM promotion_codes WHERE code = $1`

	if _, err := s.pool.Exec(ctx, query, code); err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to release code")
		return fmt.Errorf("failed to release code: %w", err)
	}
	return nil
}

// Insert persists a new promotion under a previously reserved code.
func (s *postgresStore) Insert(ctx context.Context, p *model.Promotion) error {
	query := `
		INSERT INTO promotions (
			id, name, code, type, value, active, start_date, end_date,
			usage_count, usage_limit, usage_limit_per_customer, min_order_value,
			customer_groups, product_categories, first_time_only,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Code, p.Type, p.Value, p.Active, p.StartDate, p.EndDate,
		p.UsageCount, p.UsageLimit, p.UsageLimitPerCustomer, p.MinOrderValue,
		p.CustomerGroups, p.ProductCategories, p.FirstTimeOnly,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("code", p.Code).Msg("failed to insert promotion")
		return fmt.Errorf("failed to insert promotion: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing promotion.
func (s *postgresStore) Update(ctx context.Context, p *model.Promotion) error {
	query := `
		UPDATE promotions
		SET name = $2,
		    value = $3,
		    active = $4,
		    start_date = $5,
		    end_date = $6,
		    usage_limit = $7,
		    usage_limit_per_customer = $8,
		    min_order_value = $9,
		    customer_groups = $10,
		    product_categories = $11,
		    first_time_only = $12,
		    updated_at = $13
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Value, p.Active, p.StartDate, p.EndDate,
		p.UsageLimit, p.UsageLimitPerCustomer, p.MinOrderValue,
		p.CustomerGroups, p.ProductCategories, p.FirstTimeOnly,
		p.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("promotion_id", p.ID.String()).Msg("failed to update promotion")
		return fmt.Errorf("failed to update promotion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

// GetByID retrieves a promotion by id.
func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	query := `SELECT` + promotionColumns + `FROM promotions WHERE id = $1`

	p, err := s.scanOne(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().Str("promotion_id", id.String()).Msg("promotion not found")
			return nil, nil
		}
		s.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to query promotion")
		return nil, fmt.Errorf("failed to query promotion: %w", err)
	}
	return p, nil
}

// GetByCode retrieves a promotion by normalized code.
func (s *postgresStore) GetByCode(ctx context.Context, code string) (*model.Promotion, error) {
	query := `SELECT` + promotionColumns + `FROM promotions WHERE code = $1`

	p, err := s.scanOne(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().Str("code", code).Msg("promotion not found")
			return nil, nil
		}
		s.logger.Error().Err(err).Str("code", code).Msg("failed to query promotion")
		return nil, fmt.Errorf("failed to query promotion: %w", err)
	}
	return p, nil
}

// List returns promotions ordered by code, optionally narrowed by type.
func (s *postgresStore) List(ctx context.Context, promotionType *model.PromotionType) ([]model.Promotion, error) {
	query := `SELECT` + promotionColumns + `FROM promotions`
	args := []any{}
	if promotionType != nil {
		query += ` WHERE type = $1`
		args = append(args, *promotionType)
	}
	query += ` ORDER BY code`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query promotions")
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var promotions []model.Promotion
	for rows.Next() {
		p, err := s.scanOne(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to scan promotion row")
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, *p)
	}

	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("error iterating promotion rows")
		return nil, fmt.Errorf("error iterating promotions: %w", err)
	}

	return promotions, nil
}

// Delete removes a promotion and its code reservation in one transaction.
func (s *postgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	var code string
	err = tx.QueryRow(ctx, `DELETE FROM promotions WHERE id = $1 RETURNING code`, id).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = model.ErrPromotionNotFound
			return err
		}
		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM promotion_codes WHERE code = $1`, code); err != nil {
		return fmt.Errorf("failed to release code: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IncrementUsage increments the usage counter and the customer's redemption
// history in one transaction. The counter update is conditional on the usage
// limit, so concurrent redemptions cannot push the count past the cap.
func (s *postgresStore) IncrementUsage(ctx context.Context, id uuid.UUID, customerID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	counterQuery := `
		UPDATE promotions
		SET usage_count = usage_count + 1,
		    updated_at = $2
		WHERE id = $1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, counterQuery, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish an unknown promotion from an exhausted cap.
		var exists bool
		if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM promotions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check promotion existence: %w", err)
		}
		if !exists {
			err = model.ErrPromotionNotFound
			return err
		}
		err = model.ErrUsageLimitReached
		return err
	}

	historyQuery := `
		INSERT INTO promotion_redemptions (promotion_id, customer_id, usage_count, last_redeemed_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (promotion_id, customer_id)
		DO UPDATE SET usage_count = promotion_redemptions.usage_count + 1,
		              last_redeemed_at = EXCLUDED.last_redeemed_at
	`

	if _, err = tx.Exec(ctx, historyQuery, id, customerID, time.Now()); err != nil {
		return fmt.Errorf("failed to record redemption history: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CustomerRedemptions returns the customer's redemption count for a promotion.
func (s *postgresStore) CustomerRedemptions(ctx context.Context, promotionID uuid.UUID, customerID string) (int, error) {
	query := `
		SELECT usage_count
		FROM promotion_redemptions
		WHERE promotion_id = $1 AND customer_id = $2
	`

	var count int
	err := s.pool.QueryRow(ctx, query, promotionID, customerID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		s.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to query redemption history")
		return 0, fmt.Errorf("failed to query redemption history: %w", err)
	}
	return count, nil
}

// scanOne scans a single promotion row.
func (s *postgresStore) scanOne(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.Type, &p.Value, &p.Active, &p.StartDate, &p.EndDate,
		&p.UsageCount, &p.UsageLimit, &p.UsageLimitPerCustomer, &p.MinOrderValue,
		&p.CustomerGroups, &p.ProductCategories, &p.FirstTimeOnly,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
