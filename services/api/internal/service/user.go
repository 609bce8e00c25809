package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/civic_mirror/services/api/internal/models"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/repo"
	"github.com/Skotchmaster/civic_mirror/services/api/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Details(ctx context.Context, userID uint) (*models.UserDetail, error) {
	d, err := s.Repo.GetUserDetail(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *UserService) CreateDetails(ctx context.Context, userID uint, req transport.UserDetailRequest) (*models.UserDetail, error) {
	if _, err := s.Repo.GetUserDetail(ctx, userID); err == nil {
		return nil, ErrDetailsExist
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	d := &models.UserDetail{UserID: userID}
	applyDetails(d, req)
	if err := s.Repo.CreateUserDetail(ctx, d); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDetailsExist
		}
		return nil, err
	}
	return d, nil
}

// UpdateDetails changes only the fields present in req.
func (s *UserService) UpdateDetails(ctx context.Context, userID uint, req transport.UserDetailRequest) (*models.UserDetail, error) {
	d, err := s.Details(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyDetails(d, req)
	if err := s.Repo.SaveUserDetail(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func applyDetails(d *models.UserDetail, req transport.UserDetailRequest) {
	if req.Age != nil {
		d.Age = req.Age
	}
	if req.Sex != nil {
		d.Sex = req.Sex
	}
	if req.PhoneNumber != nil {
		d.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		d.Address = req.Address
	}
	if req.City != nil {
		d.City = req.City
	}
	if req.State != nil {
		d.State = req.State
	}
	if req.PinCode != nil {
		d.PinCode = req.PinCode
	}
}
