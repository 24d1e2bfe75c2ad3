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

type eligibilityEvaluator interface {
	Evaluate(ctx context.Context, req service.EvaluateRequest) (*models.EligibilityResult, error)
}

// EligibilityHandler exposes one-shot eligibility decisions.
type EligibilityHandler struct {
	service  eligibilityEvaluator
	validate *validator.Validate
}

// NewEligibilityHandler constructs the handler.
func NewEligibilityHandler(service eligibilityEvaluator, validate *validator.Validate) *EligibilityHandler {
	if validate == nil {
		validate = identity.NewValidator()
	}
	return &EligibilityHandler{service: service, validate: validate}
}

// Evaluate godoc
// @Summary Evaluate enrollment eligibility
// @Description Resolves the catalog entry to a course type and decides whether the applicant may enroll
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body dto.EligibilityRequest true "Eligibility payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /eligibility [post]
func (h *EligibilityHandler) Evaluate(c *gin.Context) {
	var req dto.EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid eligibility payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, bindingError(err))
		return
	}

	result, err := h.service.Evaluate(c.Request.Context(), service.EvaluateRequest{
		CatalogKey: req.CatalogKey,
		Identity:   req.Identity(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
