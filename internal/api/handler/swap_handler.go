package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hqbui/faceswap-be/internal/api/dto"
	"github.com/hqbui/faceswap-be/internal/config"
	"github.com/hqbui/faceswap-be/internal/domain"
	"github.com/hqbui/faceswap-be/internal/store"
	"github.com/hqbui/faceswap-be/internal/submit"
	"github.com/gin-gonic/gin"
)

// SwapHandler handles swap job HTTP requests
type SwapHandler struct {
	logger    *slog.Logger
	submitter Submitter
	jobs      Jobs
	ledger    Ledger
	credits   config.CreditsConfig
}

// NewSwapHandler creates a new SwapHandler instance
func NewSwapHandler(deps *Dependencies) *SwapHandler {
	return &SwapHandler{
		logger:    deps.Logger,
		submitter: deps.Submitter,
		jobs:      deps.Jobs,
		ledger:    deps.Ledger,
		credits:   deps.Credits,
	}
}

// SubmitSwap handles POST /api/v1/swaps
func (h *SwapHandler) SubmitSwap(c *gin.Context) {
	var req dto.SubmitSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	kind := domain.JobKind(req.Kind)
	if !domain.ValidKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "kind must be one of: image, video, other",
		})
		return
	}

	cost := h.credits.SwapCost(req.Kind)
	if cost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no cost configured for kind",
		})
		return
	}

	ctx := c.Request.Context()

	if err := h.ledger.EnsureUser(ctx, req.OwnerID); err != nil {
		h.logger.Error("Failed to ensure user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to prepare account",
		})
		return
	}

	job, err := h.submitter.Submit(ctx, submit.Request{
		OwnerID:        req.OwnerID,
		DeliveryTarget: req.DeliveryTarget,
		Kind:           kind,
		Cost:           cost,
		Assets:         req.Assets,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": "Insufficient balance",
				"cost":  cost,
			})
			return
		}

		// The reservation has already been refunded on this path
		h.logger.Error("Swap submission failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Swap submission failed, credits were not spent",
		})
		return
	}

	c.JSON(http.StatusCreated, jobToDTO(job))
}

// GetSwap handles GET /api/v1/swaps/:request_id
func (h *SwapHandler) GetSwap(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request_id is required",
		})
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, jobToDTO(job))
}

// ListSwaps handles GET /api/v1/swaps
func (h *SwapHandler) ListSwaps(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := store.JobFilter{
		OwnerID:  req.OwnerID,
		Kind:     req.Kind,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = jobToDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&store.Cursor{
			CreatedAt: lastJob.CreatedAt,
			ID:        lastJob.RequestID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

func jobToDTO(job *domain.Job) dto.JobDTO {
	return dto.JobDTO{
		RequestID:      job.RequestID,
		OwnerID:        job.OwnerID,
		DeliveryTarget: job.DeliveryTarget,
		Kind:           string(job.Kind),
		Status:         string(job.Status),
		ResultRef:      job.ResultRef,
		FailureReason:  job.FailureReason,
		ReservedCost:   job.ReservedCost,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
}
