package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return mapErr(r.DB.WithContext(ctx).Create(t).Error)
}

func refreshActive(db *gorm.DB, jti, rawToken string) error {
	var refresh models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&refresh).Error; err != nil {
		return mapErr(err)
	}
	if refresh.Token != Sha256Hex(rawToken) {
		return ErrTokenNotActive
	}
	if refresh.Revoked || refresh.ExpiresAt < time.Now().Unix() {
		return ErrTokenNotActive
	}
	return nil
}

// RotateRefreshToken revokes the presented token and stores its successor
// in one transaction. A token can be rotated only once.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldRaw string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := refreshActive(tx, oldJTI, oldRaw); err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotActive
		}

		return mapErr(tx.Create(next).Error)
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", Sha256Hex(rawToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
