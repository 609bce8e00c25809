package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
)

// ReportFilter fields left empty do not constrain.
type ReportFilter struct {
	Status string
	Types  []string
	UserID uint
}

func (f ReportFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q
}

func (r *GormRepo) CreateReport(ctx context.Context, rep *models.Report) error {
	return mapErr(r.DB.WithContext(ctx).Omit("User", "Votes").Create(rep).Error)
}

func (r *GormRepo) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	var rep models.Report
	if err := r.DB.WithContext(ctx).First(&rep, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &rep, nil
}

// ListReports returns reports newest first.
func (r *GormRepo) ListReports(ctx context.Context, f ReportFilter, offset, limit int) ([]models.Report, error) {
	items := make([]models.Report, 0, limit)
	err := f.apply(r.DB.WithContext(ctx).Model(&models.Report{})).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ReportsByIDs keeps the order of ids and skips unknown ones.
func (r *GormRepo) ReportsByIDs(ctx context.Context, ids []uint) ([]models.Report, error) {
	if len(ids) == 0 {
		return []models.Report{}, nil
	}
	var found []models.Report
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Report, len(found))
	for _, rep := range found {
		byID[rep.ID] = rep
	}
	out := make([]models.Report, 0, len(found))
	for _, id := range ids {
		if rep, ok := byID[id]; ok {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *GormRepo) UpdateReportStatus(ctx context.Context, id uint, status string) (*models.Report, error) {
	now := time.Now().UTC()
	res := r.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetReport(ctx, id)
}

// VotersFor maps report id to the ids of users who voted for it, in vote order.
func (r *GormRepo) VotersFor(ctx context.Context, reportIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(reportIDs))
	if len(reportIDs) == 0 {
		return out, nil
	}
	var votes []models.Vote
	if err := r.DB.WithContext(ctx).
		Where("report_id IN ?", reportIDs).
		Order("id ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.ReportID] = append(out[v.ReportID], v.UserID)
	}
	return out, nil
}

func (r *GormRepo) HasVoted(ctx context.Context, userID, reportID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ? AND report_id = ?", userID, reportID).
		Count(&n).Error
	return n > 0, err
}

// CreateVote returns ErrDuplicate when the user already voted.
func (r *GormRepo) CreateVote(ctx context.Context, v *models.Vote) error {
	return mapErr(r.DB.WithContext(ctx).Omit("User").Create(v).Error)
}

// SearchReports is a case-insensitive substring match on title and
// description, used when no search index is configured.
func (r *GormRepo) SearchReports(ctx context.Context, query string, offset, limit int) (int64, []models.Report, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Report{}).
		Where("LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := make([]models.Report, 0, limit)
	err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error
	return total, items, err
}
