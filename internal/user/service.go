package user

import (
	"context"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile loads the user with the given id in its public representation.
func (s *Service) Profile(ctx context.Context, id int64) (Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return NewProfile(u), nil
}
