package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

// GetUserByLogin matches the username first, then the email. Emails are
// stored lowercased, so the email lookup ignores case.
func (r *GormRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("username = ?", login).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(mapErr(err), ErrNotFound) {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(login)).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *GormRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) exists(ctx context.Context, where string, arg any) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where(where, arg).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
