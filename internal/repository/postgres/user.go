package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"branchvid/internal/domain"
	"branchvid/internal/domain/models"
	"branchvid/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new PostgresUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a profile with its subscriber count
func (r *PostgresUserRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.picture, u.created_at,
			(SELECT count(*) FROM %s s WHERE s.channel_id = u.id)
		FROM %s u
		WHERE u.id = $1
	`, r.tables.Subscriptions, r.tables.Users)

	var profile models.UserProfile
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Picture,
		&profile.CreatedAt,
		&profile.Subscribers,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &profile, nil
}

// Upsert creates or replaces name and picture of a profile
func (r *PostgresUserRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, picture)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			picture = EXCLUDED.picture
		RETURNING created_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, profile.ID, profile.Name, profile.Picture).Scan(&profile.CreatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// ToggleSubscription flips the subscription in one statement
func (r *PostgresUserRepository) ToggleSubscription(ctx context.Context, channelID, subscriberID string) (bool, error) {
	query := fmt.Sprintf(`
		WITH removed AS (
			DELETE FROM %[1]s
			WHERE channel_id = $1 AND subscriber_id = $2
			RETURNING channel_id
		), inserted AS (
			INSERT INTO %[1]s (channel_id, subscriber_id)
			SELECT $1::text, $2::text
			WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT DO NOTHING
			RETURNING channel_id
		)
		SELECT EXISTS (SELECT 1 FROM inserted)
	`, r.tables.Subscriptions)

	var subscribed bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, channelID, subscriberID).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("toggle subscription: %w", err)
	}

	return subscribed, nil
}

// Delete removes a profile and every subscription from or to it
func (r *PostgresUserRepository) Delete(ctx context.Context, userID string) error {
	executor := GetExecutor(ctx, r.pool)

	subs := fmt.Sprintf(`DELETE FROM %s WHERE channel_id = $1 OR subscriber_id = $1`, r.tables.Subscriptions)
	if _, err := executor.Exec(ctx, subs, userID); err != nil {
		return fmt.Errorf("delete subscriptions: %w", err)
	}

	users := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Users)
	if _, err := executor.Exec(ctx, users, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}
