package dto

import "github.com/l33tdawg/cfp-directory-plugins/internal/service"

// SettingsResponse is the admin view of the review settings. The stored API
// key is never included; HasAPIKey tells the client whether one is set.
type SettingsResponse struct {
	service.ReviewSettings
	HasAPIKey bool `json:"hasApiKey"`
}

// UpdateSettingsRequest replaces the review settings. APIKey is write-only:
// an empty value leaves the stored key untouched.
type UpdateSettingsRequest struct {
	service.ReviewSettings
	APIKey string `json:"apiKey,omitempty"`
}

// CostStatsResponse reports accumulated spend for the current period.
type CostStatsResponse struct {
	service.CostStats
	BudgetLimitUSD float64 `json:"budgetLimitUsd"`
	BudgetUsed     float64 `json:"budgetUsed"`
}
