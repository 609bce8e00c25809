package models

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Report categories. A superuser's role is one of these or RoleSuper.
var ReportTypes = []string{"garbage", "labour", "electrician", "plumber", "miscellaneous"}

const (
	RoleSuper         = "super"
	DefaultReportType = "miscellaneous"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"     json:"id"`
	Email        string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Username     string     `gorm:"uniqueIndex;not null;size:64"  json:"username"`
	PasswordHash string     `gorm:"not null"                      json:"-"`
	IsActive     bool       `gorm:"not null"                      json:"is_active"`
	IsSuperuser  bool       `gorm:"not null;default:false"        json:"is_superuser"`
	Role         *string    `gorm:"size:32"                       json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"          json:"updated_at"`
}

type UserDetail struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint    `gorm:"uniqueIndex;not null"     json:"user_id"`
	Age         *int    `json:"age"`
	Sex         *string `json:"sex"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	PinCode     *string `json:"pin_code"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Report struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"        json:"id"`
	UserID      uint       `gorm:"index;not null"                  json:"user_id"`
	Title       string     `gorm:"not null"                        json:"title"`
	Description *string    `gorm:"type:text"                       json:"description"`
	Type        string     `gorm:"index;not null"                  json:"type"`
	Status      string     `gorm:"index;not null;default:pending"  json:"status"`
	ImageURL    *string    `json:"image_url"`
	Location    *string    `json:"location"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `gorm:"index"                           json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false"            json:"updated_at"`

	User  User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Votes []Vote `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Vote struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_vote_user_report"  json:"user_id"`
	ReportID  uint      `gorm:"uniqueIndex:idx_vote_user_report"  json:"report_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Comment struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	ReportID  uint       `gorm:"index;not null"           json:"report_id"`
	Text      string     `gorm:"type:text;not null"       json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"     json:"updated_at"`

	User   User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Report Report `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint   `gorm:"index;not null"       json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
	Revoked   bool   `gorm:"default:false"        json:"revoked"`
}

func All() []any {
	return []any{&User{}, &UserDetail{}, &Report{}, &Vote{}, &Comment{}, &RefreshToken{}}
}
