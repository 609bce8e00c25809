package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type CommentService struct {
	Repo *repo.GormRepo
}

func (s *CommentService) reportExists(ctx context.Context, reportID uint) error {
	if _, err := s.Repo.GetReport(ctx, reportID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CommentService) Create(ctx context.Context, userID uint, req transport.CreateCommentRequest) (*models.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, invalid("text is required")
	}
	if err := s.reportExists(ctx, req.ReportID); err != nil {
		return nil, err
	}

	c := &models.Comment{UserID: userID, ReportID: req.ReportID, Text: text}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		logging.FromContext(ctx).Error("comment_create_error", "report_id", req.ReportID, "user_id", userID, "error", err)
		return nil, err
	}
	return c, nil
}

func (s *CommentService) List(ctx context.Context, reportID uint, offset, limit int) ([]transport.CommentWithUser, error) {
	if err := s.reportExists(ctx, reportID); err != nil {
		return nil, err
	}
	items, err := s.Repo.ListComments(ctx, reportID, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CommentWithUser, 0, len(items))
	for _, c := range items {
		out = append(out, transport.CommentWithUser{Comment: c, Username: c.User.Username})
	}
	return out, nil
}

// Delete removes a comment. Only its author or a superuser may do so.
func (s *CommentService) Delete(ctx context.Context, userID uint, superuser bool, commentID uint) error {
	c, err := s.Repo.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if c.UserID != userID && !superuser {
		logging.FromContext(ctx).Warn("comment_delete_denied", "status", 403, "comment_id", commentID, "user_id", userID)
		return ErrForbidden
	}
	if err := s.Repo.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
