package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/enrollment-gate/internal/dto"
	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/internal/service"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
	"github.com/noah-isme/enrollment-gate/pkg/response"
)

type sessionRegistry interface {
	Open(ctx context.Context, catalogKey string) (*service.SessionView, error)
	SubmitIdentity(sessionID string, applicant models.ApplicantIdentity) (*service.SessionView, bool, error)
	Decision(sessionID string) (*service.SessionView, error)
	Close(sessionID string)
}

// SessionHandler drives debounced identity lookups for open enrollment forms.
type SessionHandler struct {
	registry sessionRegistry
	validate *validator.Validate
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(registry sessionRegistry, validate *validator.Validate) *SessionHandler {
	if validate == nil {
		validate = identity.NewValidator()
	}
	return &SessionHandler{registry: registry, validate: validate}
}

// Open godoc
// @Summary Open a form session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Catalog entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, bindingError(err))
		return
	}
	view, err := h.registry.Open(c.Request.Context(), req.CatalogKey)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// SubmitIdentity godoc
// @Summary Submit identity input
// @Description Schedules a debounced lookup; input shorter than the minimum length is ignored
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SessionIdentityRequest true "Identity"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id}/identity [put]
func (h *SessionHandler) SubmitIdentity(c *gin.Context) {
	var req dto.SessionIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid identity payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, bindingError(err))
		return
	}
	view, accepted, err := h.registry.SubmitIdentity(c.Param("id"), req.Identity())
	if err != nil {
		response.Error(c, err)
		return
	}
	if !accepted {
		response.JSON(c, http.StatusOK, view)
		return
	}
	response.Accepted(c, view)
}

// Decision godoc
// @Summary Latest session decision
// @Description Returns the decision of the most recent identity lookup, or pending while it runs
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id}/decision [get]
func (h *SessionHandler) Decision(c *gin.Context) {
	view, err := h.registry.Decision(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if view.Error != nil {
		response.Error(c, view.Error)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{"pending": view.Pending})
}

// Close godoc
// @Summary Close a form session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	h.registry.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}
