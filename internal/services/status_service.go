package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flooring_crm/internal/apperrors"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
	"flooring_crm/internal/redis"
	"flooring_crm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusCache stores the parsed operator statuses between reads. It never
// holds system statuses; those always come from the compiled baseline.
type StatusCache interface {
	GetCustomStatuses(ctx context.Context) ([]models.StatusDefinition, bool, error)
	SetCustomStatuses(ctx context.Context, statuses []models.StatusDefinition, valid bool, ttl time.Duration) error
	FillCustomStatuses(ctx context.Context, statuses []models.StatusDefinition, valid bool, ttl time.Duration) (bool, error)
	InvalidateCustomStatuses(ctx context.Context) error
}

type StatusService interface {
	GetStatusDefinitions(ctx context.Context) ([]models.StatusDefinition, error)
	SetStatusDefinitions(ctx context.Context, defs []models.StatusDefinition, editedBy string) ([]models.StatusDefinition, error)
	IsKnownStatus(ctx context.Context, id string) (bool, error)
}

type statusService struct {
	settingsRepo repository.SettingsRepository
	cache        StatusCache
	cacheTTL     time.Duration
	logger       *slog.Logger
}

// NewStatusService builds the taxonomy store. cache may be nil.
func NewStatusService(settingsRepo repository.SettingsRepository, cache StatusCache, cacheTTL time.Duration, logger *slog.Logger) StatusService {
	return &statusService{settingsRepo: settingsRepo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func (s *statusService) GetStatusDefinitions(ctx context.Context) ([]models.StatusDefinition, error) {
	custom, err := s.loadCustom(ctx)
	if err != nil {
		return nil, err
	}
	return lifecycle.MergeDefinitions(lifecycle.BaselineStatuses(), custom), nil
}

func (s *statusService) loadCustom(ctx context.Context) ([]models.StatusDefinition, error) {
	if s.cache != nil {
		custom, _, err := s.cache.GetCustomStatuses(ctx)
		if err == nil {
			return custom, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("status cache read failed", "error", err)
		}
	}

	var raw []byte
	setting, err := s.settingsRepo.Get(ctx, models.SettingOrderStatuses)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, apperrors.Database("failed to load status definitions", err)
	default:
		raw = setting.Value
	}

	custom, ok := lifecycle.ParseStoredDefinitions(raw)
	if !ok && len(raw) > 0 {
		s.logger.Warn("stored status definitions are malformed, using baseline", "bytes", len(raw))
	}

	// A concurrent writer may already have cached a newer list; never replace it.
	if s.cache != nil {
		if _, err := s.cache.FillCustomStatuses(ctx, custom, ok, s.cacheTTL); err != nil {
			s.logger.Warn("status cache write failed", "error", err)
		}
	}
	return custom, nil
}

func (s *statusService) SetStatusDefinitions(ctx context.Context, defs []models.StatusDefinition, editedBy string) ([]models.StatusDefinition, error) {
	editedBy = strings.TrimSpace(editedBy)
	if editedBy == "" {
		return nil, apperrors.InvalidInput("editor name is required")
	}

	normalized, err := lifecycle.NormalizeDefinitions(defs, newCustomStatusID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid status definitions", err)
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to encode status definitions", err)
	}

	setting, err := s.settingsRepo.Put(ctx, models.SettingOrderStatuses, raw, editedBy)
	if err != nil {
		return nil, apperrors.Database("failed to save status definitions", err)
	}

	custom, _ := lifecycle.ParseStoredDefinitions(raw)
	if s.cache != nil {
		if err := s.cache.SetCustomStatuses(ctx, custom, true, s.cacheTTL); err != nil {
			s.logger.Warn("status cache update failed, invalidating", "error", err)
			if err := s.cache.InvalidateCustomStatuses(ctx); err != nil {
				s.logger.Warn("status cache invalidation failed", "error", err)
			}
		}
	}

	s.logger.Info("status definitions updated", "edited_by", editedBy, "version", setting.Version, "entries", len(normalized))
	return lifecycle.MergeDefinitions(lifecycle.BaselineStatuses(), custom), nil
}

func (s *statusService) IsKnownStatus(ctx context.Context, id string) (bool, error) {
	if lifecycle.IsSystemStatus(id) {
		return true, nil
	}
	defs, err := s.GetStatusDefinitions(ctx)
	if err != nil {
		return false, err
	}
	return lifecycle.ContainsStatus(defs, id), nil
}

func newCustomStatusID() string {
	return "custom_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
