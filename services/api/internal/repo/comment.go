package repo

import (
	"context"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return mapErr(r.DB.WithContext(ctx).Omit("User", "Report").Create(c).Error)
}

func (r *GormRepo) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// ListComments returns the comments of a report newest first, with their authors loaded.
func (r *GormRepo) ListComments(ctx context.Context, reportID uint, offset, limit int) ([]models.Comment, error) {
	items := make([]models.Comment, 0, limit)
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("report_id = ?", reportID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *GormRepo) DeleteComment(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
