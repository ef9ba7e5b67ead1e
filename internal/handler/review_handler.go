package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/l33tdawg/cfp-directory-plugins/internal/dto"
	"github.com/l33tdawg/cfp-directory-plugins/internal/queue"
	"github.com/l33tdawg/cfp-directory-plugins/internal/service"
	"github.com/l33tdawg/cfp-directory-plugins/internal/utils"
)

// ReviewHandler exposes review triggering and retrieval endpoints.
type ReviewHandler struct {
	reviews service.ReviewService
	jobs    *queue.Queue
	logger  zerolog.Logger
}

func NewReviewHandler(reviews service.ReviewService, jobs *queue.Queue, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		jobs:    jobs,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register wires review routes.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("/submissions/:id/review", h.trigger)
	router.Get("/submissions/:id/reviews", h.list)
	router.Get("/jobs/:id", h.job)
}

func (h *ReviewHandler) trigger(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	jobID, err := h.reviews.RequestReview(c.Context(), submissionID)
	if err != nil {
		if errors.Is(err, service.ErrCooldownActive) {
			return utils.SendError(c, fiber.StatusTooManyRequests, "review recently requested, try again later")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", submissionID).Msg("failed to request review")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to request review")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "review queued", dto.TriggerReviewResponse{
		JobID:        jobID,
		SubmissionID: submissionID,
		Status:       queue.StatusPending,
	})
}

func (h *ReviewHandler) list(c *fiber.Ctx) error {
	submissionID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	reviews, err := h.reviews.ListBySubmission(c.Context(), submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", submissionID).Msg("failed to list reviews")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list reviews")
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, dto.NewReviewResponse(review))
	}

	return utils.SendSuccess(c, "", responses)
}

func (h *ReviewHandler) job(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid job id")
	}

	job, err := h.jobs.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "job not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("job_id", jobID).Msg("failed to load job")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load job")
	}

	return utils.SendSuccess(c, "", dto.JobResponse{
		ID:         job.ID,
		Type:       job.Type,
		Status:     job.Status,
		Attempts:   job.Attempts,
		Error:      job.Error,
		EnqueuedAt: job.EnqueuedAt,
		UpdatedAt:  job.UpdatedAt,
	})
}
