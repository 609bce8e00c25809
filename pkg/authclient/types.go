package authclient

import "time"

type User struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	Role        *string    `json:"role,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type RegisterRequest struct {
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	IsSuperuser bool    `json:"is_superuser,omitempty"`
	Role        *string `json:"role,omitempty"`
}

type Report struct {
	ID          uint       `json:"id"`
	UserID      uint       `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Type        string     `json:"type"`
	Location    *string    `json:"location,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Status      string     `json:"status"`
	ImageURL    *string    `json:"image_url,omitempty"`
	VoteCount   int        `json:"vote_count"`
	Votes       []uint     `json:"votes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type CreateReportRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Location    string   `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Base64Image string   `json:"base64_image,omitempty"`
	ImageType   string   `json:"image_type,omitempty"`
}

type ListOptions struct {
	Skip   int
	Limit  int
	Status string
}

type Vote struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	ReportID  uint      `json:"report_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	ReportID  uint       `json:"report_id"`
	Text      string     `json:"text"`
	Username  string     `json:"username,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UserDetails fields are pointers so that updates stay partial.
type UserDetails struct {
	ID          uint    `json:"id,omitempty"`
	UserID      uint    `json:"user_id,omitempty"`
	Age         *int    `json:"age,omitempty"`
	Sex         *string `json:"sex,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	PinCode     *string `json:"pin_code,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
