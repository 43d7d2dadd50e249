package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Provision(ctx context.Context, userID int) (Profile, error)
	Me(ctx context.Context, userID int) (Profile, error)
	SetPremium(ctx context.Context, userID int, premium bool) (Profile, error)
}

type Service struct {
	repo  Repository
	log   *slog.Logger
	newID func() string
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.With("component", "profile_service"),
		newID: uuid.NewString,
	}
}

// Provision создаёт профиль пользователя; повторный вызов возвращает существующий.
func (s *Service) Provision(ctx context.Context, userID int) (Profile, error) {
	p, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, fmt.Errorf("поиск профиля: %w", err)
	}

	p, err = s.repo.Create(ctx, s.newID(), userID)
	if err != nil {
		return Profile{}, fmt.Errorf("создание профиля: %w", err)
	}

	s.log.Info("Профиль создан", "user_id", userID, "profile_id", p.ID)
	return p, nil
}

func (s *Service) Me(ctx context.Context, userID int) (Profile, error) {
	p, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) SetPremium(ctx context.Context, userID int, premium bool) (Profile, error) {
	p, err := s.repo.SetPremium(ctx, userID, premium)
	if err != nil {
		return Profile{}, err
	}

	s.log.Debug("Премиум-статус обновлён", "profile_id", p.ID, "premium", premium)
	return p, nil
}
