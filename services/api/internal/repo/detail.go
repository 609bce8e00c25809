package repo

import (
	"context"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

func (r *GormRepo) GetUserDetail(ctx context.Context, userID uint) (*models.UserDetail, error) {
	var d models.UserDetail
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&d).Error; err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

// CreateUserDetail returns ErrDuplicate when the user already has details.
func (r *GormRepo) CreateUserDetail(ctx context.Context, d *models.UserDetail) error {
	return mapErr(r.DB.WithContext(ctx).Omit("User").Create(d).Error)
}

func (r *GormRepo) SaveUserDetail(ctx context.Context, d *models.UserDetail) error {
	return r.DB.WithContext(ctx).Omit("User").Save(d).Error
}
