package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ataa/internal/domain"
)

// NotificationRepositoryPG implements NotificationRepository using PostgreSQL.
type NotificationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repo.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepositoryPG {
	return &NotificationRepositoryPG{pool: pool}
}

// Create inserts a new notification record.
func (r *NotificationRepositoryPG) Create(ctx context.Context, n *domain.Notification) error {
	id := n.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO notifications (id, recipient, title, body, locale, contribution_id)
VALUES ($1, $2, $3, $4, $5, $6);
`, id, n.Recipient, n.Title, n.Body, n.Locale, n.ContributionID)
	return err
}

// AdminRoleRepositoryPG resolves admin-role membership from the database.
type AdminRoleRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAdminRoleRepository creates a new admin role repo.
func NewAdminRoleRepository(pool *pgxpool.Pool) *AdminRoleRepositoryPG {
	return &AdminRoleRepositoryPG{pool: pool}
}

// ListAdminIdentities returns the identities holding the admin role.
func (r *AdminRoleRepositoryPG) ListAdminIdentities(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT identity_ref FROM admin_roles;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		identities = append(identities, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return identities, nil
}
