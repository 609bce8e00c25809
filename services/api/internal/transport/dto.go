package transport

import "github.com/Skotchmaster/civic_mirror/services/api/internal/models"

type RegisterRequest struct {
	Email       string  `json:"email"        validate:"required,email,max=255"`
	Username    string  `json:"username"     validate:"required,min=3,max=64"`
	Password    string  `json:"password"     validate:"required,min=8,max=128"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	Role        *string `json:"role"`
}

// LoginRequest is the OAuth2 password grant form. Username may also be an email.
type LoginRequest struct {
	GrantType string `form:"grant_type"`
	Username  string `form:"username"   validate:"required"`
	Password  string `form:"password"   validate:"required"`
}

type RefreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

type LogoutRequest struct {
	Token string `json:"token" validate:"required"`
}

type CreateReportRequest struct {
	Title       string   `json:"title"        validate:"required,max=200"`
	Description *string  `json:"description"  validate:"omitempty,max=5000"`
	Type        string   `json:"type"`
	Location    *string  `json:"location"     validate:"omitempty,max=255"`
	Latitude    *float64 `json:"latitude"     validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude"    validate:"omitempty,longitude"`
	Base64Image *string  `json:"base64_image"`
	ImageType   *string  `json:"image_type"   validate:"omitempty,max=10"`
}

type ListReportsQuery struct {
	Skip   int
	Limit  int
	Status string
}

// Report is a report as the API returns it, with its votes folded in.
type Report struct {
	models.Report
	VoteCount int    `json:"vote_count"`
	Votes     []uint `json:"votes"`
}

type VoteRequest struct {
	ReportID uint `json:"report_id" validate:"required"`
}

type CreateCommentRequest struct {
	ReportID uint   `json:"report_id" validate:"required"`
	Text     string `json:"text"      validate:"required,max=2000"`
}

type CommentWithUser struct {
	models.Comment
	Username string `json:"username"`
}

type UserDetailRequest struct {
	Age         *int    `json:"age"          validate:"omitempty,min=0,max=150"`
	Sex         *string `json:"sex"          validate:"omitempty,max=16"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Address     *string `json:"address"      validate:"omitempty,max=255"`
	City        *string `json:"city"         validate:"omitempty,max=100"`
	State       *string `json:"state"        validate:"omitempty,max=100"`
	PinCode     *string `json:"pin_code"     validate:"omitempty,max=12"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type ReportEvent struct {
	Type     string `json:"type"`
	ReportID uint   `json:"report_id"`
	UserID   uint   `json:"user_id"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}
