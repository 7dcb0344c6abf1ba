package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prendasoft/prenda-api/internal/models"
	"github.com/prendasoft/prenda-api/internal/repository"

	"gorm.io/gorm"
)

// configCacheTTL bounds how stale a resolved value can be. Rule changes are
// rare and calculators run per transaction, so a short window is acceptable;
// every persisted calculation carries its own snapshot regardless.
const configCacheTTL = 5 * time.Minute

// ChargeConfig is the resolved set of charge rules used by the calculators.
// It is also what gets written into calculation logs as the config snapshot.
type ChargeConfig struct {
	MonthlyInterestRate       float64 `json:"monthly_interest_rate"`
	MonthlyPenaltyRate        float64 `json:"monthly_penalty_rate"`
	GracePeriodDays           int     `json:"grace_period_days"`
	DailyPenaltyThresholdDays int     `json:"daily_penalty_threshold_days"`
	MaxPenaltyMultiplier      float64 `json:"max_penalty_multiplier"`
	MaturityPeriodDays        int     `json:"maturity_period_days"`
	ExpiryPeriodDays          int     `json:"expiry_period_days"`
}

// ChargeConfigService resolves versioned, effective-dated charge
// configuration. A missing key is a configuration error, never a default.
type ChargeConfigService struct {
	repo repository.ChargeConfigRepository

	mu              sync.RWMutex
	cachedValues    map[string]float64
	cachedBrackets  []models.ServiceChargeBracket
	valuesExpireAt  time.Time
	bracketExpireAt time.Time
}

// NewChargeConfigService creates a new charge config service
func NewChargeConfigService(repo repository.ChargeConfigRepository) *ChargeConfigService {
	return &ChargeConfigService{
		repo:         repo,
		cachedValues: make(map[string]float64),
	}
}

// Value resolves the active value for a key at the current time
func (s *ChargeConfigService) Value(ctx context.Context, key string) (float64, error) {
	s.mu.RLock()
	if time.Now().Before(s.valuesExpireAt) {
		if v, ok := s.cachedValues[key]; ok {
			s.mu.RUnlock()
			return v, nil
		}
	}
	s.mu.RUnlock()

	entry, err := s.repo.FindActiveEntry(ctx, key, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: missing config key %q", ErrConfiguration, key)
		}
		return 0, fmt.Errorf("resolve config key %q: %w", key, err)
	}

	s.mu.Lock()
	if time.Now().After(s.valuesExpireAt) {
		s.cachedValues = make(map[string]float64)
		s.valuesExpireAt = time.Now().Add(configCacheTTL)
	}
	s.cachedValues[key] = entry.Value
	s.mu.Unlock()

	return entry.Value, nil
}

// Brackets returns the active service charge brackets in ascending
// min-amount order
func (s *ChargeConfigService) Brackets(ctx context.Context) ([]models.ServiceChargeBracket, error) {
	s.mu.RLock()
	if time.Now().Before(s.bracketExpireAt) && s.cachedBrackets != nil {
		brackets := s.cachedBrackets
		s.mu.RUnlock()
		return brackets, nil
	}
	s.mu.RUnlock()

	brackets, err := s.repo.FindActiveBrackets(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve service charge brackets: %w", err)
	}
	if len(brackets) == 0 {
		return nil, fmt.Errorf("%w: no active service charge brackets", ErrConfiguration)
	}

	s.mu.Lock()
	s.cachedBrackets = brackets
	s.bracketExpireAt = time.Now().Add(configCacheTTL)
	s.mu.Unlock()

	return brackets, nil
}

// Snapshot resolves the full configuration set used by a lifecycle
// calculation. Every key must be present.
func (s *ChargeConfigService) Snapshot(ctx context.Context) (*ChargeConfig, error) {
	cfg := &ChargeConfig{}

	fields := []struct {
		key string
		set func(float64)
	}{
		{models.ConfigKeyMonthlyInterestRate, func(v float64) { cfg.MonthlyInterestRate = v }},
		{models.ConfigKeyMonthlyPenaltyRate, func(v float64) { cfg.MonthlyPenaltyRate = v }},
		{models.ConfigKeyGracePeriodDays, func(v float64) { cfg.GracePeriodDays = int(v) }},
		{models.ConfigKeyDailyPenaltyThresholdDays, func(v float64) { cfg.DailyPenaltyThresholdDays = int(v) }},
		{models.ConfigKeyMaxPenaltyMultiplier, func(v float64) { cfg.MaxPenaltyMultiplier = v }},
		{models.ConfigKeyMaturityPeriodDays, func(v float64) { cfg.MaturityPeriodDays = int(v) }},
		{models.ConfigKeyExpiryPeriodDays, func(v float64) { cfg.ExpiryPeriodDays = int(v) }},
	}

	for _, f := range fields {
		v, err := s.Value(ctx, f.key)
		if err != nil {
			return nil, err
		}
		f.set(v)
	}

	return cfg, nil
}

// ListEntries returns configuration history for a key (all keys when empty)
func (s *ChargeConfigService) ListEntries(ctx context.Context, key string) ([]models.ChargeConfigEntry, error) {
	return s.repo.ListEntries(ctx, key)
}

// AddEntry inserts a new effective-dated configuration row. History is
// append-only; previous rows stay untouched for reproducibility.
func (s *ChargeConfigService) AddEntry(ctx context.Context, entry *models.ChargeConfigEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("%w: config key is required", ErrValidation)
	}
	if entry.EffectiveDate.IsZero() {
		entry.EffectiveDate = time.Now()
	}
	entry.IsActive = true

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// AddBracket inserts a new service charge bracket
func (s *ChargeConfigService) AddBracket(ctx context.Context, bracket *models.ServiceChargeBracket) error {
	if bracket.MinAmount < 0 || bracket.Charge < 0 {
		return fmt.Errorf("%w: bracket amounts must not be negative", ErrValidation)
	}
	if bracket.MaxAmount != nil && *bracket.MaxAmount < bracket.MinAmount {
		return fmt.Errorf("%w: bracket max must be >= min", ErrValidation)
	}
	bracket.IsActive = true

	if err := s.repo.CreateBracket(ctx, bracket); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the read cache; the next call re-resolves from storage
func (s *ChargeConfigService) Invalidate() {
	s.mu.Lock()
	s.cachedValues = make(map[string]float64)
	s.cachedBrackets = nil
	s.valuesExpireAt = time.Time{}
	s.bracketExpireAt = time.Time{}
	s.mu.Unlock()
}
