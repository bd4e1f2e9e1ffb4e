package access

import (
	"context"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists dashboard access rows. A user may accumulate multiple
// historical rows; the current one is the most recently created.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Current loads the newest dashboard access row for the user.
func (r *Repository) Current(ctx context.Context, userID uuid.UUID) (*models.DashboardAccess, error) {
	var row models.DashboardAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new dashboard access row.
func (r *Repository) Create(ctx context.Context, row *models.DashboardAccess) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Update applies the provided column updates to a single row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DashboardAccess{}).
		Where("id = ?", id).
		Updates(updates).Error
}
