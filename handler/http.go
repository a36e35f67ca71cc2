package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"reel-ingest/constant"
	"reel-ingest/dto"
	"reel-ingest/entities"
	"reel-ingest/repository"
	"reel-ingest/service"
)

// requesterHeader carries the authenticated user id. Authentication itself
// happens at the gateway; this service only enforces ownership.
const requesterHeader = "X-User-Id"

type Http struct {
	submitter  service.Submitter
	reconciler service.Reconciler
	deleter    service.Deleter
	repo       repository.ContentRepository
}

func NewHttp(submitter service.Submitter, reconciler service.Reconciler, deleter service.Deleter, repo repository.ContentRepository) *Http {
	return &Http{
		submitter:  submitter,
		reconciler: reconciler,
		deleter:    deleter,
		repo:       repo,
	}
}

func (h *Http) Register(r *gin.Engine) {
	r.POST("/videos", h.submit)
	r.GET("/videos/:id", h.get)
	r.POST("/videos/:id/refresh", h.refresh)
	r.DELETE("/videos/:id", h.delete)
}

func (h *Http) submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.submitter.Submit(c.Request.Context(), req.OwnerID, req.SourceObject)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("submit failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "submission failed"})
		return
	}

	c.JSON(http.StatusCreated, dto.SubmitResponse{
		ID:             record.ID,
		UploadHandle:   record.UploadHandle,
		LifecycleState: record.LifecycleState,
	})
}

func (h *Http) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	record, err := h.repo.FindContentRecordById(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, statusOf(record))
}

// refresh runs one reconciliation round. The app calls this from the
// user-facing "tap to refresh" action; there is no background poller.
func (h *Http) refresh(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	record, err := h.reconciler.AttemptReconcile(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		// Transient provider trouble: the record is untouched, the app may
		// simply retry. Still-processing is a normal 200, never an error.
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("record_id", id.String()).Msg("refresh attempt failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again later"})
		return
	}

	c.JSON(http.StatusOK, statusOf(record))
}

func (h *Http) delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	requesterId, err := uuid.Parse(c.GetHeader(requesterHeader))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing requester"})
		return
	}

	err = h.deleter.Delete(c.Request.Context(), id, requesterId)
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("record_id", id.String()).Msg("delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed, retry"})
	default:
		c.Status(http.StatusNoContent)
	}
}

func statusOf(record *entities.ContentRecord) dto.VideoStatusResponse {
	return dto.VideoStatusResponse{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		LifecycleState:  record.LifecycleState,
		FailureKind:     record.FailureKind,
		StreamReference: record.StreamReference,
		SlowProcessing: record.LifecycleState == constant.LifecycleStateProcessing &&
			record.ProcessingFor(time.Now()) > constant.SlowProcessingThreshold,
	}
}
