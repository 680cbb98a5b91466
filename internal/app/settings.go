package app

import (
	"context"
	"strings"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
	"github.com/Guilhem-Bonnet/bookclub/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	if s == nil || s.repo == nil {
		return domain.DefaultSettings(), nil
	}
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings.RoomNumber = strings.TrimSpace(settings.RoomNumber)
	settings.WechatLink = strings.TrimSpace(settings.WechatLink)
	if settings.RoomNumber == "" {
		settings.RoomNumber = domain.DefaultSettings().RoomNumber
	}
	return s.repo.Put(ctx, settings)
}
