package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/civic_mirror/pkg/logging"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/events"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

// AdminService serves superusers. A superuser whose role names a report
// category only sees and changes reports of that category.
type AdminService struct {
	Reports *ReportService
}

func scope(admin *models.User) []string {
	if admin.Role == nil || *admin.Role == "" || *admin.Role == models.RoleSuper {
		return nil
	}
	return []string{*admin.Role}
}

func inScope(admin *models.User, rep *models.Report) bool {
	types := scope(admin)
	return types == nil || types[0] == rep.Type
}

func (s *AdminService) List(ctx context.Context, admin *models.User, q transport.ListReportsQuery) ([]transport.Report, error) {
	if !admin.IsSuperuser {
		return nil, ErrForbidden
	}
	status, err := NormalizeStatus(q.Status)
	if err != nil {
		return nil, err
	}
	items, err := s.Reports.Repo.ListReports(ctx, repo.ReportFilter{Status: status, Types: scope(admin)}, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}
	return s.Reports.withVotes(ctx, items)
}

func (s *AdminService) UpdateStatus(ctx context.Context, admin *models.User, reportID uint, status string) (*transport.Report, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_status", "report_id", reportID, "admin_id", admin.ID)

	if !admin.IsSuperuser {
		return nil, ErrForbidden
	}
	status, err := NormalizeStatus(status)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return nil, invalid("status is required")
	}

	rep, err := s.Reports.Repo.GetReport(ctx, reportID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !inScope(admin, rep) {
		l.Warn("status_update_denied", "status", 403, "reason", "report type outside admin role", "type", rep.Type)
		return nil, ErrForbidden
	}

	prev := rep.Status
	rep, err = s.Reports.Repo.UpdateReportStatus(ctx, reportID, status)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.Info("report_status_changed", "from", prev, "to", status)

	s.Reports.index(ctx, *rep)
	ev := transport.ReportEvent{ReportID: rep.ID, UserID: rep.UserID, Status: rep.Status, Category: rep.Type}
	ev.Type = events.ReportStatusChanged
	s.Reports.publish(ctx, ev)
	if status == models.StatusResolved && prev != models.StatusResolved {
		ev.Type = events.ReportResolved
		s.Reports.publish(ctx, ev)
	}

	out, err := s.Reports.withVotes(ctx, []models.Report{*rep})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *AdminService) Complete(ctx context.Context, admin *models.User, reportID uint) (*transport.Report, error) {
	return s.UpdateStatus(ctx, admin, reportID, models.StatusResolved)
}
