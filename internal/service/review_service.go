package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
	"github.com/l33tdawg/cfp-directory-plugins/internal/observability"
	"github.com/l33tdawg/cfp-directory-plugins/internal/queue"
	"github.com/l33tdawg/cfp-directory-plugins/internal/repository"
	"github.com/l33tdawg/cfp-directory-plugins/internal/review"
	"github.com/l33tdawg/cfp-directory-plugins/pkg/ai"
)

// JobTypeAnalyzeSubmission is the queue job type for AI submission reviews.
const JobTypeAnalyzeSubmission = "analyze-submission"

// SubjectReviewCompleted is published on NATS after a review is persisted.
const SubjectReviewCompleted = "cfp.review.completed"

// ReviewerAccountName is the service account reviews are written under.
const ReviewerAccountName = "AI Reviewer"

const (
	cooldownKeyPrefix = "cfp:review:cooldown:"

	// Bounds for the duplicate-detection candidate set. Keeping both small
	// caps the comparison work per job regardless of event size.
	duplicateCandidateLimit = 50
	duplicateAbstractChars  = 2000
	maxParseRepairs         = 1

	// Analysis jobs run exactly once. Parse problems are repaired in-band
	// and configuration or provider failures need operator action, so a
	// queue-level retry would only repeat the same failure and spend.
	analyzeJobMaxAttempts = 1
)

// ErrCooldownActive indicates a review was requested again before the
// per-submission cooldown expired.
var ErrCooldownActive = errors.New("review cooldown active for submission")

// ErrNoAPIKey indicates no provider API key has been configured yet.
var ErrNoAPIKey = errors.New("provider api key not configured")

// BudgetExceededError indicates accumulated spend reached the configured
// budget limit and reviews are paused.
type BudgetExceededError struct {
	LimitUSD float64
	SpentUSD float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("review budget exceeded: spent %.2f of %.2f USD", e.SpentUSD, e.LimitUSD)
}

var analyzePayloadSchema = jsonschema.MustCompileString("analyze-submission.json", `{
	"type": "object",
	"required": ["submissionId"],
	"properties": {
		"submissionId": {"type": "integer", "minimum": 1}
	}
}`)

// ProviderFactory builds a chat provider from a tag and credential. Tests
// substitute it to avoid real upstream calls.
type ProviderFactory func(provider, apiKey string, logger zerolog.Logger) (ai.Provider, error)

// ReviewService accepts review requests, runs the analysis job, and persists
// the result as the AI reviewer's single review per submission.
type ReviewService interface {
	RequestReview(ctx context.Context, submissionID uint) (string, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error)
	Register(q *queue.Queue)
}

type reviewService struct {
	reviews     repository.ReviewRepository
	submissions repository.SubmissionRepository
	events      repository.EventRepository
	accounts    repository.ServiceAccountRepository
	settings    SettingsService
	costs       CostTracker
	queue       *queue.Queue
	rdb         *redis.Client
	nc          *nats.Conn
	factory     ProviderFactory
	cooldown    time.Duration
	scanLimit   int
	logger      zerolog.Logger
}

// ReviewServiceDeps bundles the collaborators of the review service.
type ReviewServiceDeps struct {
	Reviews     repository.ReviewRepository
	Submissions repository.SubmissionRepository
	Events      repository.EventRepository
	Accounts    repository.ServiceAccountRepository
	Settings    SettingsService
	Costs       CostTracker
	Queue       *queue.Queue
	Redis       *redis.Client
	NATS        *nats.Conn
	Factory     ProviderFactory
	Cooldown    time.Duration
	ScanLimit   int
}

func NewReviewService(deps ReviewServiceDeps, logger zerolog.Logger) ReviewService {
	factory := deps.Factory
	if factory == nil {
		factory = ai.New
	}
	scanLimit := deps.ScanLimit
	if scanLimit <= 0 {
		scanLimit = 100
	}

	return &reviewService{
		reviews:     deps.Reviews,
		submissions: deps.Submissions,
		events:      deps.Events,
		accounts:    deps.Accounts,
		settings:    deps.Settings,
		costs:       deps.Costs,
		queue:       deps.Queue,
		rdb:         deps.Redis,
		nc:          deps.NATS,
		factory:     factory,
		cooldown:    deps.Cooldown,
		scanLimit:   scanLimit,
		logger:      logger.With().Str("component", "review_service").Logger(),
	}
}

// Register wires the analysis handler into the job queue.
func (s *reviewService) Register(q *queue.Queue) {
	q.RegisterHandler(JobTypeAnalyzeSubmission, s.handleAnalyze)
}

// RequestReview enqueues an analysis job for the submission. A repeat request
// within the cooldown window is rejected, and any pending job for the same
// submission is cancelled so only the newest request runs.
func (s *reviewService) RequestReview(ctx context.Context, submissionID uint) (string, error) {
	if s.cooldown > 0 {
		key := fmt.Sprintf("%s%d", cooldownKeyPrefix, submissionID)
		ok, err := s.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.cooldown).Result()
		if err != nil {
			return "", fmt.Errorf("cooldown check: %w", err)
		}
		if !ok {
			return "", ErrCooldownActive
		}
	}

	s.cancelPendingJobs(ctx, submissionID)

	jobID, err := s.queue.Enqueue(ctx, JobTypeAnalyzeSubmission, map[string]any{
		"submissionId": submissionID,
	}, analyzeJobMaxAttempts)
	if err != nil {
		// Release the cooldown so the next request is not locked out
		// behind a job that never made it onto the queue.
		if s.cooldown > 0 {
			key := fmt.Sprintf("%s%d", cooldownKeyPrefix, submissionID)
			if delErr := s.rdb.Del(context.WithoutCancel(ctx), key).Err(); delErr != nil {
				s.logger.Warn().Err(delErr).Uint("submission_id", submissionID).Msg("cooldown release failed")
			}
		}
		return "", err
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Str("job_id", jobID).
		Msg("review requested")
	return jobID, nil
}

// cancelPendingJobs cancels queued analysis jobs for the same submission. The
// scan is bounded; beyond the limit a stale job may survive, which the upsert
// on persist makes harmless.
func (s *reviewService) cancelPendingJobs(ctx context.Context, submissionID uint) {
	jobs, err := s.queue.GetJobs(ctx, queue.StatusPending, s.scanLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("pending job scan failed")
		return
	}
	if len(jobs) == s.scanLimit {
		s.logger.Warn().
			Int("scan_limit", s.scanLimit).
			Msg("pending job scan hit limit, older duplicates may remain")
	}

	for _, job := range jobs {
		if job.Type != JobTypeAnalyzeSubmission {
			continue
		}
		id, ok := payloadSubmissionID(job.Payload)
		if !ok || id != submissionID {
			continue
		}
		if err := s.queue.CancelJob(ctx, job.ID); err != nil && !errors.Is(err, queue.ErrJobNotFound) {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("cancel superseded job failed")
		}
	}
}

func (s *reviewService) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error) {
	return s.reviews.ListBySubmission(ctx, submissionID)
}

func (s *reviewService) handleAnalyze(ctx context.Context, payload map[string]any) (any, error) {
	started := time.Now()
	result, err := s.analyze(ctx, payload)
	observability.ReviewDurations().Observe(time.Since(started).Seconds())
	if err != nil {
		observability.ReviewJobs().WithLabelValues("failed").Inc()
		return nil, err
	}
	observability.ReviewJobs().WithLabelValues("completed").Inc()
	return result, nil
}

func (s *reviewService) analyze(ctx context.Context, payload map[string]any) (review.AnalysisResult, error) {
	if err := analyzePayloadSchema.Validate(payload); err != nil {
		return review.AnalysisResult{}, fmt.Errorf("invalid job payload: %w", err)
	}
	submissionID, _ := payloadSubmissionID(payload)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return review.AnalysisResult{}, fmt.Errorf("load settings: %w", err)
	}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return review.AnalysisResult{}, fmt.Errorf("load api key: %w", err)
	}
	if apiKey == "" {
		return review.AnalysisResult{}, ErrNoAPIKey
	}

	if err := s.checkBudget(ctx, settings); err != nil {
		return review.AnalysisResult{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return review.AnalysisResult{}, fmt.Errorf("load submission %d: %w", submissionID, err)
	}

	event, err := s.events.GetWithCriteria(ctx, submission.EventID)
	if err != nil {
		return review.AnalysisResult{}, fmt.Errorf("load event %d: %w", submission.EventID, err)
	}

	similar := s.findSimilar(ctx, settings, submission)

	provider, err := s.factory(settings.Provider, apiKey, s.logger)
	if err != nil {
		return review.AnalysisResult{}, err
	}

	result, err := s.runAnalysis(ctx, provider, settings, event, submission, similar)
	if err != nil {
		return review.AnalysisResult{}, err
	}

	s.recordCost(ctx, settings, result)

	if err := s.persist(ctx, settings, submission, result); err != nil {
		return review.AnalysisResult{}, err
	}

	s.publishCompleted(submission, result, settings)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("overall_score", result.OverallScore).
		Str("recommendation", result.Recommendation).
		Int("parse_attempts", result.ParseAttempts).
		Float64("cost_usd", result.CostUSD).
		Msg("review completed")
	return result, nil
}

func (s *reviewService) checkBudget(ctx context.Context, settings ReviewSettings) error {
	if settings.BudgetLimitUSD <= 0 || !settings.PauseOnBudgetExceeded {
		return nil
	}

	stats, err := s.costs.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load cost stats: %w", err)
	}
	if stats.TotalCostUSD >= settings.BudgetLimitUSD {
		return &BudgetExceededError{LimitUSD: settings.BudgetLimitUSD, SpentUSD: stats.TotalCostUSD}
	}
	return nil
}

// findSimilar runs duplicate detection against recent sibling submissions.
// Failures are logged and ignored; a review without a similarity section is
// still useful.
func (s *reviewService) findSimilar(ctx context.Context, settings ReviewSettings, submission models.Submission) []review.SimilarSubmission {
	if !settings.DuplicateDetection {
		return nil
	}

	siblings, err := s.submissions.ListByEvent(ctx, submission.EventID, duplicateCandidateLimit)
	if err != nil {
		s.logger.Warn().Err(err).Uint("event_id", submission.EventID).Msg("duplicate candidate load failed")
		return nil
	}

	candidates := make([]review.Candidate, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ID == submission.ID {
			continue
		}
		candidates = append(candidates, review.Candidate{
			ID:       sibling.ID,
			Title:    sibling.Title,
			Abstract: truncate(sibling.Abstract, duplicateAbstractChars),
		})
	}

	return review.FindSimilar(
		submission.Title,
		truncate(submission.Abstract, duplicateAbstractChars),
		candidates,
		settings.DuplicateThreshold,
	)
}

// runAnalysis performs the provider round-trip, parses the response with at
// most one in-band repair call, and sanitizes the outcome.
func (s *reviewService) runAnalysis(
	ctx context.Context,
	provider ai.Provider,
	settings ReviewSettings,
	event models.Event,
	submission models.Submission,
	similar []review.SimilarSubmission,
) (review.AnalysisResult, error) {
	criteria := make([]review.CriterionInfo, 0, len(event.Criteria))
	for _, c := range event.Criteria {
		criteria = append(criteria, review.CriterionInfo{Name: c.Name, Description: c.Description})
	}

	userPrompt := review.UserPrompt(review.PromptInput{
		EventName:        event.Name,
		EventType:        event.EventType,
		Description:      event.Description,
		Topics:           event.Topics,
		AudienceLevel:    event.AudienceLevel,
		Criteria:         criteria,
		Title:            submission.Title,
		Abstract:         submission.Abstract,
		Similar:          similar,
		MaxAbstractChars: settings.MaxAbstractChars,
	})

	totalUsage := ai.Usage{}

	resp, err := provider.Complete(ctx, ai.Request{
		Model:       settings.Model,
		System:      review.SystemPrompt(),
		User:        userPrompt,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		WebSearch:   settings.WebSearch,
	})
	if err != nil {
		return review.AnalysisResult{}, classifyProviderError(provider.Name(), err)
	}
	totalUsage = totalUsage.Add(resp.Usage)

	repair := func(ctx context.Context, broken string) (string, error) {
		fixed, err := provider.Complete(ctx, ai.Request{
			Model:       settings.Model,
			System:      review.RepairPrompt(),
			User:        broken,
			MaxTokens:   settings.MaxTokens,
			Temperature: 0,
		})
		if err != nil {
			return "", classifyProviderError(provider.Name(), err)
		}
		totalUsage = totalUsage.Add(fixed.Usage)
		return fixed.Content, nil
	}

	outcome, err := review.ParseWithRepair(ctx, resp.Content, repair, maxParseRepairs)
	if err != nil {
		return review.AnalysisResult{}, err
	}

	result := review.Sanitize(outcome.Data)
	result.Similar = similar
	result.Usage = totalUsage
	result.CostUSD = ai.EstimateCost(totalUsage, settings.Model)
	result.ParseAttempts = outcome.Attempts
	result.RepairApplied = outcome.Repaired
	return result, nil
}

func (s *reviewService) recordCost(ctx context.Context, settings ReviewSettings, result review.AnalysisResult) {
	if err := s.costs.Record(ctx, result.Usage, result.CostUSD); err != nil {
		s.logger.Error().Err(err).Msg("cost record failed")
	}
	observability.ReviewCost().Add(result.CostUSD)

	if settings.BudgetLimitUSD <= 0 || settings.BudgetAlertThreshold <= 0 {
		return
	}
	stats, err := s.costs.Stats(ctx)
	if err != nil {
		return
	}
	if stats.TotalCostUSD >= settings.BudgetLimitUSD*settings.BudgetAlertThreshold {
		s.logger.Warn().
			Float64("spent_usd", stats.TotalCostUSD).
			Float64("limit_usd", settings.BudgetLimitUSD).
			Msg("review spend crossed alert threshold")
	}
}

// persist writes the review as the AI reviewer's row for this submission.
// Create first; a duplicate-key conflict means a row already exists, so the
// existing row is re-fetched and updated in place.
func (s *reviewService) persist(ctx context.Context, settings ReviewSettings, submission models.Submission, result review.AnalysisResult) error {
	account, err := s.accounts.GetOrCreate(ctx, ReviewerAccountName, "")
	if err != nil {
		return fmt.Errorf("reviewer account: %w", err)
	}

	row := buildReviewRow(submission.ID, account.ID, settings, result)

	createErr := s.reviews.Create(ctx, row)
	if createErr == nil {
		return nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("create review: %w", createErr)
	}

	existing, err := s.reviews.GetBySubmissionAndReviewer(ctx, submission.ID, account.ID)
	if err != nil {
		// The conflicting row disappeared between create and re-query.
		// Surface the original conflict; a retry will land cleanly.
		return fmt.Errorf("create review: %w", createErr)
	}

	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	if err := s.reviews.Update(ctx, row); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func buildReviewRow(submissionID, reviewerID uint, settings ReviewSettings, result review.AnalysisResult) *models.Review {
	criteriaScores := datatypes.JSONMap{}
	for name, score := range result.CriteriaScores {
		criteriaScores[name] = score
	}

	similarJSON, _ := json.Marshal(result.Similar)

	return &models.Review{
		SubmissionID:   submissionID,
		ReviewerID:     reviewerID,
		OverallScore:   result.OverallScore,
		Recommendation: result.Recommendation,
		Summary:        result.Summary,
		CriteriaScores: criteriaScores,
		Strengths:      datatypes.NewJSONSlice(result.Strengths),
		Weaknesses:     datatypes.NewJSONSlice(result.Weaknesses),
		Suggestions:    datatypes.NewJSONSlice(result.Suggestions),
		Confidence:     result.Confidence,
		LowConfidence:  result.Confidence < settings.ConfidenceThreshold,
		Similar:        similarJSON,
		Provider:       settings.Provider,
		Model:          settings.Model,
		InputTokens:    result.Usage.InputTokens,
		OutputTokens:   result.Usage.OutputTokens,
		CostUSD:        result.CostUSD,
	}
}

func (s *reviewService) publishCompleted(submission models.Submission, result review.AnalysisResult, settings ReviewSettings) {
	if s.nc == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"submissionId":   submission.ID,
		"eventId":        submission.EventID,
		"overallScore":   result.OverallScore,
		"recommendation": result.Recommendation,
		"provider":       settings.Provider,
		"model":          settings.Model,
		"costUsd":        result.CostUSD,
	})
	if err != nil {
		return
	}
	if err := s.nc.Publish(SubjectReviewCompleted, payload); err != nil {
		s.logger.Warn().Err(err).Msg("review completion publish failed")
	}
}

// classifyProviderError maps upstream failures to stable messages. Response
// bodies are dropped so nothing from the provider leaks into job errors.
func classifyProviderError(providerName string, err error) error {
	var statusErr *ai.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return fmt.Errorf("%s rejected the configured api key (status %d)", providerName, statusErr.StatusCode)
		case 429:
			return fmt.Errorf("%s rate limited the request", providerName)
		default:
			return fmt.Errorf("%s request failed (status %d)", providerName, statusErr.StatusCode)
		}
	}
	return fmt.Errorf("%s request failed: %w", providerName, err)
}

func payloadSubmissionID(payload map[string]any) (uint, bool) {
	switch v := payload["submissionId"].(type) {
	case float64:
		if v < 1 {
			return 0, false
		}
		return uint(v), true
	case int:
		if v < 1 {
			return 0, false
		}
		return uint(v), true
	case uint:
		return v, true
	default:
		return 0, false
	}
}

// truncate caps text at max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
