package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	pkg_hash "github.com/Skotchmaster/civic_mirror/pkg/hash"
	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/pkg/tokens"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

const TokenType = "bearer"

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// ValidRole reports whether role may be given to a superuser.
func ValidRole(role string) bool {
	return role == models.RoleSuper || slices.Contains(models.ReportTypes, role)
}

// Register creates a user. Superuser flag and role are honoured only when
// the caller is a superuser, or when this is the very first account.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest, callerSuperuser bool) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if taken, err := s.Repo.EmailTaken(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.Repo.UsernameTaken(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	superuser := false
	var role *string
	if req.IsSuperuser {
		allowed := callerSuperuser
		if !allowed {
			n, err := s.Repo.CountUsers(ctx)
			if err != nil {
				return nil, err
			}
			allowed = n == 0
		}
		if !allowed {
			l.Warn("register_error", "status", 403, "reason", "superuser requested by non-superuser")
			return nil, ErrForbidden
		}
		superuser = true
		if req.Role != nil && *req.Role != "" {
			if !ValidRole(*req.Role) {
				return nil, invalid("Invalid role. Must be one of: %s", strings.Join(append(slices.Clone(models.ReportTypes), models.RoleSuper), ", "))
			}
			r := *req.Role
			role = &r
		}
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: pwHash,
		IsActive:     active,
		IsSuperuser:  superuser,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}
	l.Info("user_registered", "user_id", user.ID, "superuser", superuser)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "login", login)

	user, err := s.Repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		l.Warn("login failed", "status", 400, "reason", "inactive user")
		return nil, ErrInactiveUser
	}

	res, refresh, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, refresh); err != nil {
		l.Error("login failed", "status", 500, "error", err)
		return nil, err
	}
	return res, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is returned. Presenting an already rotated token revokes every
// session of its user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh failed", "status", 401, "reason", "bad token", "error", err)
		return nil, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	res, next, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, refreshToken, next); err != nil {
		switch {
		case errors.Is(err, repo.ErrTokenNotActive):
			l.Warn("refresh failed", "status", 401, "reason", "token reused or expired", "user_id", userID)
			if rErr := s.Repo.RevokeAllForUser(ctx, userID); rErr != nil {
				l.Error("revoke_all_error", "error", rErr)
			}
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrInvalidRefreshToken
		default:
			l.Error("refresh failed", "status", 500, "error", err)
			return nil, err
		}
	}
	return res, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

// ActiveUser loads the caller and rejects deactivated accounts.
func (s *AuthService) ActiveUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(s.AccessTTL)
	access, err := tokens.NewAccessToken(s.JWTSecret, user.ID, user.IsSuperuser, accessExp)
	if err != nil {
		return nil, nil, err
	}

	jti := uuid.NewString()
	refreshExp := now.Add(s.RefreshTTL)
	refresh, err := tokens.NewRefreshToken(s.RefreshSecret, user.ID, jti, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	res := &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenType,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}
	stored := &models.RefreshToken{
		Token:     repo.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return res, stored, nil
}
