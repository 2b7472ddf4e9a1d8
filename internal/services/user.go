package services

import (
	"context"

	"github.com/syncsphere/server/internal/model"
	"github.com/syncsphere/server/internal/store"
	"github.com/syncsphere/server/internal/userday"
)

// UserService orchestrates user profile use cases.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// CreateUser validates the day settings before persisting; a profile with an
// unknown timezone is rejected rather than silently defaulted.
func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.TimeZone == "" {
		u.TimeZone = userday.DefaultTimeZone
	}
	if _, err := (userday.Config{TimeZone: u.TimeZone, ResetHour: u.ResetHour}).Location(); err != nil {
		return nil, err
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

func (s *UserService) UpdateDaySettings(ctx context.Context, userID, timeZone string, resetHour int) (*model.User, error) {
	if _, err := (userday.Config{TimeZone: timeZone, ResetHour: resetHour}).Location(); err != nil {
		return nil, err
	}
	return s.store.Users().UpdateDaySettings(ctx, userID, timeZone, resetHour)
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return s.store.Users().Delete(ctx, userID)
}

// FocusArea CRUD (reference data for segments)

func (s *UserService) CreateFocusArea(ctx context.Context, f *model.FocusArea) (*model.FocusArea, error) {
	return s.store.FocusAreas().Create(ctx, f)
}

func (s *UserService) ListFocusAreas(ctx context.Context, userID string) ([]*model.FocusArea, error) {
	return s.store.FocusAreas().List(ctx, userID)
}

func (s *UserService) DeleteFocusArea(ctx context.Context, userID, focusAreaID string) error {
	return s.store.FocusAreas().Delete(ctx, userID, focusAreaID)
}

// DayConfigFor resolves a user's day settings, applying the documented
// defaults only when the profile carries no timezone at all.
func DayConfigFor(u *model.User) userday.Config {
	cfg := userday.DefaultConfig()
	if u.TimeZone != "" {
		cfg.TimeZone = u.TimeZone
	}
	cfg.ResetHour = u.ResetHour
	return cfg
}
