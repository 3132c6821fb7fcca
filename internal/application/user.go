package app

import (
	"context"

	"oral-scan/internal/domain/entity"
	"oral-scan/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// BeginCheck переводит пользователя в ожидание снимка.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// StartProcessing отмечает, что снимок пользователя анализируется.
// Возвращает false, если анализ предыдущего снимка ещё не закончен.
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, bool, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, false, err
	}
	if user.IsBusy() {
		return user, false, nil
	}
	if err := s.repo.UpdateState(ctx, userID, entity.StateProcessing); err != nil {
		return nil, false, err
	}
	user.SetState(entity.StateProcessing)
	return user, true, nil
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
