package session

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/civic_mirror/pkg/authclient"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenType    = "token_type"
)

// Entry is one stored session field. A profile owns at most three entries.
type Entry struct {
	Profile string `gorm:"primaryKey;size:64"`
	Name    string `gorm:"primaryKey;size:32"`
	Value   string `gorm:"type:text;not null"`
}

func (Entry) TableName() string { return "session_entries" }

// GormStore keeps the session as key/value rows, so a CLI profile survives
// between invocations.
type GormStore struct {
	DB      *gorm.DB
	Profile string
}

func NewGormStore(db *gorm.DB, profile string) (*GormStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate session entries: %w", err)
	}
	if profile == "" {
		profile = "default"
	}
	return &GormStore{DB: db, Profile: profile}, nil
}

func (s *GormStore) Get(ctx context.Context) (authclient.Session, error) {
	var rows []Entry
	if err := s.DB.WithContext(ctx).Where("profile = ?", s.Profile).Find(&rows).Error; err != nil {
		return authclient.Session{}, fmt.Errorf("load session: %w", err)
	}

	var out authclient.Session
	for _, r := range rows {
		switch r.Name {
		case keyAccessToken:
			out.AccessToken = r.Value
		case keyRefreshToken:
			out.RefreshToken = r.Value
		case keyTokenType:
			out.TokenType = r.Value
		}
	}
	if out.AccessToken == "" {
		return authclient.Session{}, authclient.ErrNoSession
	}
	return out, nil
}

// Set replaces all three fields in one transaction. Empty fields are
// removed rather than stored.
func (s *GormStore) Set(ctx context.Context, sess authclient.Session) error {
	if sess.AccessToken == "" {
		return authclient.ErrEmptySession
	}
	fields := map[string]string{
		keyAccessToken:  sess.AccessToken,
		keyRefreshToken: sess.RefreshToken,
		keyTokenType:    sess.TokenType,
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range fields {
			if v == "" {
				if err := tx.Where("profile = ? AND name = ?", s.Profile, k).Delete(&Entry{}).Error; err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
				continue
			}
			row := Entry{Profile: s.Profile, Name: k, Value: v}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "profile"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("store %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).Where("profile = ?", s.Profile).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
