package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/dto"
	"github.com/noah-isme/enrollment-gate/internal/middleware"
	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/internal/service"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
	"github.com/noah-isme/enrollment-gate/pkg/jobs"
	"github.com/noah-isme/enrollment-gate/pkg/response"
)

type availabilitySource interface {
	Snapshot(ctx context.Context, forceRefresh bool) (*models.AvailabilitySnapshot, error)
	SeatsByCourseType(ctx context.Context) (map[int]*models.CourseTypeSeats, *models.AvailabilitySnapshot, error)
	SeatsForShift(ctx context.Context, courseTypeID int, shift models.ScheduleShift, forceRefresh bool) (int, error)
	State() service.CacheState
}

type offeringsEvents interface {
	LastEvent() *models.NewOfferingsEvent
	Stats() jobs.Stats
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type sessionCounter interface {
	Len() int
}

// AvailabilityHandler serves seat availability and operator refreshes.
type AvailabilityHandler struct {
	availability availabilitySource
	events       offeringsEvents
	catalog      catalogInvalidator
	sessions     sessionCounter
	logger       *zap.Logger
}

// NewAvailabilityHandler constructs the handler. events, catalog and sessions are optional.
func NewAvailabilityHandler(availability availabilitySource, events offeringsEvents, catalog catalogInvalidator, sessions sessionCounter, logger *zap.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityHandler{availability: availability, events: events, catalog: catalog, sessions: sessions, logger: logger}
}

// Overview godoc
// @Summary Seat availability per course type
// @Description Serves the cached snapshot; meta.stale is true when a refresh failed and older data is shown
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) Overview(c *gin.Context) {
	seats, snapshot, err := h.availability.SeatsByCourseType(c.Request.Context())
	courseTypes := make([]*models.CourseTypeSeats, 0, len(seats))
	for _, entry := range seats {
		courseTypes = append(courseTypes, entry)
	}
	sort.Slice(courseTypes, func(i, j int) bool {
		return courseTypes[i].CourseTypeID < courseTypes[j].CourseTypeID
	})

	h.markStale(c, err)
	if h.events != nil {
		if event := h.events.LastEvent(); event != nil {
			middleware.SetMeta(c, "new_offerings", event)
		}
	}
	response.JSON(c, http.StatusOK, dto.AvailabilityResponse{CourseTypes: courseTypes, FetchedAt: snapshot.FetchedAt}, middleware.ExtractMeta(c))
}

// ShiftSeats godoc
// @Summary Seats left in one shift
// @Tags Availability
// @Produce json
// @Param courseTypeId path int true "Course type ID"
// @Param shift path string true "Schedule shift (morning or evening)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/{courseTypeId}/{shift} [get]
func (h *AvailabilityHandler) ShiftSeats(c *gin.Context) {
	courseTypeID, err := strconv.Atoi(c.Param("courseTypeId"))
	if err != nil || courseTypeID <= 0 {
		response.Error(c, appErrors.InvalidField("course_type_id", "course type id must be a positive integer"))
		return
	}
	shift := models.ParseScheduleShift(c.Param("shift"))
	if !shift.Valid() {
		response.Error(c, appErrors.InvalidField(models.FieldScheduleShift, "shift must be morning or evening"))
		return
	}

	seats, err := h.availability.SeatsForShift(c.Request.Context(), courseTypeID, shift, false)
	h.markStale(c, err)
	state := h.availability.State()
	response.JSON(c, http.StatusOK, dto.ShiftSeatsResponse{
		CourseTypeID:  courseTypeID,
		ScheduleShift: shift,
		Seats:         seats,
		FetchedAt:     state.Snapshot.FetchedAt,
	}, middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Force an availability refresh
// @Description Bypasses the TTL (still subject to the minimum refresh interval) and drops the cached catalog
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /admin/availability/refresh [post]
func (h *AvailabilityHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	snapshot, err := h.availability.Snapshot(ctx, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := dto.RefreshResponse{Offerings: len(snapshot.Offerings), FetchedAt: snapshot.FetchedAt}
	if h.catalog != nil {
		if err := h.catalog.Invalidate(ctx); err != nil {
			h.logger.Warn("catalog cache invalidation failed", zap.Error(err))
		} else {
			result.CatalogInvalidated = true
		}
	}
	if h.events != nil {
		result.LastEvent = h.events.LastEvent()
	}

	fields := []zap.Field{zap.Int("offerings", result.Offerings)}
	if claims := claimsFromContext(c); claims != nil {
		fields = append(fields, zap.String("user_id", claims.UserID))
	}
	h.logger.Info("availability refreshed by operator", fields...)
	response.JSON(c, http.StatusOK, result)
}

// State godoc
// @Summary Availability cache state
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/availability/state [get]
func (h *AvailabilityHandler) State(c *gin.Context) {
	state := h.availability.State()
	result := dto.CacheStateResponse{
		LastAttempt: state.LastAttempt,
		Offerings:   state.LastCount,
		Baselined:   state.Baselined,
	}
	if state.Snapshot != nil {
		result.FetchedAt = state.Snapshot.FetchedAt
	}
	if h.sessions != nil {
		result.OpenSessions = h.sessions.Len()
	}
	if h.events != nil {
		stats := h.events.Stats()
		result.NotifyProcessed = stats.Processed
		result.NotifyFailed = stats.Failed
		result.NotifyDropped = stats.Dropped
	}
	response.JSON(c, http.StatusOK, result)
}

func (h *AvailabilityHandler) markStale(c *gin.Context, err error) {
	if err != nil {
		h.logger.Debug("serving stale availability", zap.Error(err))
	}
	middleware.SetStale(c, err)
}
