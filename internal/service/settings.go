package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/datastore"
	"github.com/l33tdawg/cfp-directory-plugins/pkg/ai"
)

const (
	settingsNamespace = "ai-reviewer"
	settingsKey       = "settings"
	apiKeyKey         = "api_key"
)

// ReviewSettings controls how submission reviews are produced. The provider
// API key is not part of this struct; it is stored encrypted under its own
// key and never returned to callers.
type ReviewSettings struct {
	Provider              string  `json:"provider" validate:"omitempty,oneof=openai anthropic gemini"`
	Model                 string  `json:"model"`
	Temperature           float32 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens             int     `json:"maxTokens" validate:"gte=0,lte=32768"`
	MaxAbstractChars      int     `json:"maxAbstractChars" validate:"gte=0"`
	AutoReview            bool    `json:"autoReview"`
	WebSearch             bool    `json:"webSearch"`
	BudgetLimitUSD        float64 `json:"budgetLimitUsd" validate:"gte=0"`
	BudgetAlertThreshold  float64 `json:"budgetAlertThreshold" validate:"gte=0,lte=1"`
	PauseOnBudgetExceeded bool    `json:"pauseOnBudgetExceeded"`
	DuplicateDetection    bool    `json:"duplicateDetection"`
	DuplicateThreshold    float64 `json:"duplicateThreshold" validate:"gte=0,lte=1"`
	ConfidenceThreshold   float64 `json:"confidenceThreshold" validate:"gte=0,lte=1"`
}

// DefaultSettings returns the configuration used before an admin has saved
// anything.
func DefaultSettings() ReviewSettings {
	return ReviewSettings{
		Provider:              ai.ProviderOpenAI,
		Model:                 "gpt-4o-mini",
		Temperature:           0.3,
		MaxTokens:             4096,
		MaxAbstractChars:      8000,
		AutoReview:            false,
		WebSearch:             false,
		BudgetLimitUSD:        0,
		BudgetAlertThreshold:  0.8,
		PauseOnBudgetExceeded: true,
		DuplicateDetection:    true,
		DuplicateThreshold:    0.65,
		ConfidenceThreshold:   0.5,
	}
}

// SettingsService persists review settings and the provider API key.
type SettingsService interface {
	Get(ctx context.Context) (ReviewSettings, error)
	Save(ctx context.Context, settings ReviewSettings) error
	SetAPIKey(ctx context.Context, apiKey string) error
	HasAPIKey(ctx context.Context) (bool, error)
	APIKey(ctx context.Context) (string, error)
	DeleteAPIKey(ctx context.Context) error
}

type settingsService struct {
	store  datastore.Store
	logger zerolog.Logger
}

func NewSettingsService(store datastore.Store, logger zerolog.Logger) SettingsService {
	return &settingsService{
		store:  store,
		logger: logger.With().Str("component", "settings_service").Logger(),
	}
}

func (s *settingsService) Get(ctx context.Context) (ReviewSettings, error) {
	settings := DefaultSettings()
	found, err := s.store.Get(ctx, settingsNamespace, settingsKey, &settings)
	if err != nil {
		return ReviewSettings{}, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	return settings, nil
}

func (s *settingsService) Save(ctx context.Context, settings ReviewSettings) error {
	if err := s.store.Set(ctx, settingsNamespace, settingsKey, settings); err != nil {
		return err
	}
	s.logger.Info().
		Str("provider", settings.Provider).
		Str("model", settings.Model).
		Msg("review settings saved")
	return nil
}

// SetAPIKey stores the provider credential encrypted at rest. The value is
// never logged and never readable back through the admin API.
func (s *settingsService) SetAPIKey(ctx context.Context, apiKey string) error {
	if err := s.store.Set(ctx, settingsNamespace, apiKeyKey, apiKey, datastore.WithEncryption()); err != nil {
		return err
	}
	s.logger.Info().Msg("provider api key updated")
	return nil
}

func (s *settingsService) HasAPIKey(ctx context.Context) (bool, error) {
	var key string
	found, err := s.store.Get(ctx, settingsNamespace, apiKeyKey, &key)
	if err != nil {
		return false, err
	}
	return found && key != "", nil
}

// APIKey is used by the review worker when dispatching provider calls.
// Handlers must use HasAPIKey instead so the secret never reaches a client.
func (s *settingsService) APIKey(ctx context.Context) (string, error) {
	var key string
	found, err := s.store.Get(ctx, settingsNamespace, apiKeyKey, &key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return key, nil
}

func (s *settingsService) DeleteAPIKey(ctx context.Context) error {
	if err := s.store.Delete(ctx, settingsNamespace, apiKeyKey); err != nil {
		return err
	}
	s.logger.Info().Msg("provider api key removed")
	return nil
}
