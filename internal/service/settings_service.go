package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/repository"
)

type SettingsService struct {
	repo  SettingsStore
	cache cache.QueryCache
	log   *slog.Logger
}

func NewSettingsService(repo SettingsStore, qc cache.QueryCache, log *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, cache: qc, log: log}
}

// Get returns the site settings, creating the default row on first read.
func (s *SettingsService) Get(ctx context.Context) (*domain.SiteSettings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrSettingsNotFound) {
		return nil, err
	}

	settings = domain.DefaultSiteSettings(time.Now().UTC())
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.log.Info("created default site settings")
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, session *access.Session, settings *domain.SiteSettings) (*domain.SiteSettings, error) {
	if err := access.RequirePermission(session, access.PermManageSettings); err != nil {
		return nil, err
	}
	settings.SiteName = strings.TrimSpace(settings.SiteName)
	if settings.SiteName == "" {
		return nil, domain.Invalid("site_name", "site name is required")
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keySettings)
	return settings, nil
}
