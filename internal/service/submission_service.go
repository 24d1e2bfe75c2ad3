package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/pkg/backend"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

var (
	receiptSubject  = regexp.MustCompile(`(?i)(receipt|recibo|comprobante|voucher)`)
	alreadyUsedHint = regexp.MustCompile(`(?i)(already|duplicad|duplicate|ya\s+(fue|ha|est)|registrad|in use|used|exist)`)
)

type submissionWriter interface {
	Create(ctx context.Context, form models.SubmissionForm, decision models.EligibilityDecision) (*models.SubmissionReceipt, error)
}

type submissionGate interface {
	Validate(ctx context.Context, form models.SubmissionForm, decision models.EligibilityDecision, method models.PaymentMethod) error
}

// SubmissionService re-evaluates eligibility, validates the form and forwards it.
type SubmissionService struct {
	eligibility eligibilityEvaluator
	validator   submissionGate
	writer      submissionWriter
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSubmissionService constructs a submission service.
func NewSubmissionService(eligibility eligibilityEvaluator, validator submissionGate, writer submissionWriter, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{eligibility: eligibility, validator: validator, writer: writer, metrics: metrics, logger: logger}
}

// Submit computes a fresh decision for the applicant, validates the form
// against it and posts it to the backend.
func (s *SubmissionService) Submit(ctx context.Context, form models.SubmissionForm) (*models.SubmissionReceipt, error) {
	form.Identity = form.Identity.Normalized()
	applicant := form.Identity

	result, err := s.eligibility.Evaluate(ctx, EvaluateRequest{CatalogKey: form.CatalogKey, Identity: &applicant})
	if err != nil {
		return nil, err
	}
	if result.CourseType != nil {
		form.CourseTypeID = result.CourseType.ID
	}

	if err := s.validator.Validate(ctx, form, result.Decision, form.PaymentMethod); err != nil {
		s.metrics.RecordSubmission(appErrors.KindOf(err))
		s.logger.Info("submission rejected",
			zap.String("applicant", identity.Fingerprint(applicant)),
			zap.String("reason", appErrors.KindOf(err)),
		)
		return nil, err
	}

	receipt, err := s.writer.Create(ctx, form, result.Decision)
	if err != nil {
		mapped := mapSubmissionError(err)
		s.metrics.RecordSubmission(mapped.Code)
		s.logger.Warn("backend rejected submission",
			zap.String("applicant", identity.Fingerprint(applicant)),
			zap.String("code", mapped.Code),
			zap.Error(err),
		)
		return nil, mapped
	}
	if receipt.Decision == "" {
		receipt.Decision = result.Decision
	}
	s.metrics.RecordSubmission("accepted")
	s.logger.Info("submission accepted",
		zap.String("applicant", identity.Fingerprint(applicant)),
		zap.String("code", receipt.Code),
	)
	return receipt, nil
}

// mapSubmissionError turns backend rejections into DUPLICATE_RECEIPT or
// SERVER_ERROR carrying the raw message.
func mapSubmissionError(err error) *appErrors.Error {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		if isDuplicateReceipt(statusErr.Message) {
			return appErrors.Clone(appErrors.ErrDuplicateReceipt, "")
		}
		return appErrors.ServerError(statusErr.Message, statusErr.Status)
	}
	return appErrors.ServerError(err.Error(), http.StatusBadGateway)
}

func isDuplicateReceipt(message string) bool {
	return receiptSubject.MatchString(message) && alreadyUsedHint.MatchString(message)
}
