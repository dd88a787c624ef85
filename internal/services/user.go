package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
)

type UserService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, language types.Language) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return user, nil
}

func (us *userService) UpdateProfile(ctx context.Context, id uuid.UUID, name string, language types.Language) (*types.User, error) {
	user, err := us.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n := strings.TrimSpace(name); n != "" {
		user.Name = n
	}
	if language != "" {
		switch language {
		case types.LanguageEnglish, types.LanguageSpanish, types.LanguageFrench:
			user.Language = language
		default:
			return nil, fmt.Errorf("unsupported language %q", language)
		}
	}
	updated, err := us.userRepo.Update(ctx, nil, user)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}
