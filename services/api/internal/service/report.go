package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/events"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/search"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type ImageUploader interface {
	UploadBase64(ctx context.Context, payload, ext string) (string, error)
}

type ReportService struct {
	Repo   *repo.GormRepo
	Images ImageUploader
	Events events.Publisher
	Index  search.Index
}

// NormalizeStatus accepts "completed" as an alias of "resolved". An empty
// status stays empty.
func NormalizeStatus(status string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "":
		return "", nil
	case "completed":
		return models.StatusResolved, nil
	case models.StatusPending, models.StatusInProgress, models.StatusResolved:
		return s, nil
	default:
		return "", invalid("Invalid status. Must be one of: pending, in_progress, resolved")
	}
}

func normalizeType(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return models.DefaultReportType, nil
	}
	if !slices.Contains(models.ReportTypes, t) {
		return "", invalid("Invalid type. Must be one of: %s", strings.Join(models.ReportTypes, ", "))
	}
	return t, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *ReportService) Create(ctx context.Context, userID uint, req transport.CreateReportRequest) (*transport.Report, error) {
	l := logging.FromContext(ctx).With("svc", "report.create", "user_id", userID)

	typ, err := normalizeType(req.Type)
	if err != nil {
		return nil, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, invalid("latitude and longitude must be given together")
	}

	rep := &models.Report{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: nonEmpty(req.Description),
		Type:        typ,
		Status:      models.StatusPending,
		Location:    nonEmpty(req.Location),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if rep.Title == "" {
		return nil, invalid("title is required")
	}

	if img, ext := nonEmpty(req.Base64Image), nonEmpty(req.ImageType); img != nil && ext != nil {
		switch {
		case s.Images == nil:
			l.Warn("image_upload_skipped", "reason", "object storage is not configured")
		default:
			url, err := s.Images.UploadBase64(ctx, *img, *ext)
			if err != nil {
				l.Error("image_upload_error", "reason", "report is created without image", "error", err)
			} else {
				rep.ImageURL = &url
			}
		}
	}

	if err := s.Repo.CreateReport(ctx, rep); err != nil {
		l.Error("report_create_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("report_created", "report_id", rep.ID, "type", rep.Type, "has_image", rep.ImageURL != nil)

	s.index(ctx, *rep)
	s.publish(ctx, transport.ReportEvent{Type: events.ReportCreated, ReportID: rep.ID, UserID: userID, Status: rep.Status, Category: rep.Type})

	return &transport.Report{Report: *rep, Votes: []uint{}}, nil
}

func (s *ReportService) List(ctx context.Context, q transport.ListReportsQuery) ([]transport.Report, error) {
	status, err := NormalizeStatus(q.Status)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListReports(ctx, repo.ReportFilter{Status: status}, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	return s.withVotes(ctx, items)
}

func (s *ReportService) Mine(ctx context.Context, userID uint, q transport.ListReportsQuery) ([]transport.Report, error) {
	status, err := NormalizeStatus(q.Status)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.ListReports(ctx, repo.ReportFilter{Status: status, UserID: userID}, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	return s.withVotes(ctx, items)
}

func (s *ReportService) Get(ctx context.Context, id uint) (*transport.Report, error) {
	rep, err := s.Repo.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out, err := s.withVotes(ctx, []models.Report{*rep})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *ReportService) Vote(ctx context.Context, userID, reportID uint) (*models.Vote, error) {
	rep, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	voted, err := s.Repo.HasVoted(ctx, userID, reportID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	v := &models.Vote{UserID: userID, ReportID: reportID}
	if err := s.Repo.CreateVote(ctx, v); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	s.publish(ctx, transport.ReportEvent{Type: events.ReportVoted, ReportID: reportID, UserID: userID, Category: rep.Type})
	return v, nil
}

// Search uses the search index when one is configured and falls back to a
// substring match in the database.
func (s *ReportService) Search(ctx context.Context, query string, offset, limit int) (int64, []transport.Report, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, invalid("q is required")
	}

	var (
		total int64
		items []models.Report
		err   error
	)
	if s.Index != nil {
		var ids []uint
		total, ids, err = s.Index.Search(ctx, query, offset, limit)
		if err != nil {
			return 0, nil, err
		}
		items, err = s.Repo.ReportsByIDs(ctx, ids)
	} else {
		total, items, err = s.Repo.SearchReports(ctx, query, offset, limit)
	}
	if err != nil {
		return 0, nil, err
	}

	out, err := s.withVotes(ctx, items)
	return total, out, err
}

func (s *ReportService) withVotes(ctx context.Context, items []models.Report) ([]transport.Report, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	voters, err := s.Repo.VotersFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]transport.Report, 0, len(items))
	for _, it := range items {
		v := voters[it.ID]
		if v == nil {
			v = []uint{}
		}
		out = append(out, transport.Report{Report: it, VoteCount: len(v), Votes: v})
	}
	return out, nil
}

func (s *ReportService) index(ctx context.Context, rep models.Report) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexReport(ctx, rep); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "report_id", rep.ID, "error", err)
	}
}

func (s *ReportService) publish(ctx context.Context, ev transport.ReportEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "type", ev.Type, "report_id", ev.ReportID, "error", err)
	}
}
