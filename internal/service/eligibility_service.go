package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

type courseTypeResolver interface {
	Resolve(ctx context.Context, catalogKey string) (*models.CourseTypeRecord, error)
}

type offeringsLister interface {
	ListOfferings(ctx context.Context, courseTypeID int) ([]models.CourseOffering, error)
}

type applicantLookup interface {
	FindStudent(ctx context.Context, identity models.ApplicantIdentity) (*models.ExistingStudentRecord, error)
	FindPendingRequest(ctx context.Context, identity models.ApplicantIdentity) (*models.PendingRequestRecord, error)
}

type snapshotSource interface {
	Snapshot(ctx context.Context, forceRefresh bool) (*models.AvailabilitySnapshot, error)
}

// EvaluateRequest asks for a decision on a catalog entry, optionally for a
// specific applicant.
type EvaluateRequest struct {
	CatalogKey string                    `validate:"required,max=120"`
	Identity   *models.ApplicantIdentity `validate:"-"`
}

// applicantEvidence holds the results of the parallel identity lookups.
type applicantEvidence struct {
	pending *models.PendingRequestRecord
	student *models.ExistingStudentRecord
}

// EligibilityService gathers course, availability and applicant data and
// resolves them into an EligibilityResult.
type EligibilityService struct {
	catalog      courseTypeResolver
	offerings    offeringsLister
	applicants   applicantLookup
	availability snapshotSource
	validator    *validator.Validate
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewEligibilityService constructs an eligibility service.
func NewEligibilityService(
	catalog courseTypeResolver,
	offerings offeringsLister,
	applicants applicantLookup,
	availability snapshotSource,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *EligibilityService {
	if validate == nil {
		validate = identity.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		catalog:      catalog,
		offerings:    offerings,
		applicants:   applicants,
		availability: availability,
		validator:    validate,
		metrics:      metrics,
		logger:       logger,
	}
}

// Evaluate resolves the course type, loads its offerings and, when an identity
// is supplied, checks pending requests and enrollment history in parallel.
func (s *EligibilityService) Evaluate(ctx context.Context, req EvaluateRequest) (*models.EligibilityResult, error) {
	req.CatalogKey = strings.TrimSpace(req.CatalogKey)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.InvalidField("catalog_key", "catalog key is required")
	}

	var applicant *models.ApplicantIdentity
	if req.Identity != nil {
		normalized := req.Identity.Normalized()
		if err := identity.ValidateDocument(normalized.DocumentType, normalized.DocumentValue); err != nil {
			return nil, err
		}
		applicant = &normalized
	}

	result := &models.EligibilityResult{CatalogKey: req.CatalogKey, Offerings: []models.CourseOffering{}}

	courseType, err := s.catalog.Resolve(ctx, req.CatalogKey)
	if err != nil {
		return nil, err
	}
	if courseType == nil {
		return s.finish(result, models.DecisionUnresolved, models.DocumentTypeNational, applicant), nil
	}
	result.CourseType = courseType
	result.Offerings = s.loadOfferings(ctx, courseType.ID)

	input := EligibilityInput{CourseType: courseType, Offerings: result.Offerings}
	if decision := ResolveEligibility(input); !decision.Open() || applicant == nil {
		return s.finish(result, decision, models.DocumentTypeNational, applicant), nil
	}

	evidence, err := s.gatherApplicantEvidence(ctx, *applicant)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, "applicant records could not be checked")
	}
	input.Identity = applicant
	input.Pending = evidence.pending
	input.Student = evidence.student

	decision := ResolveEligibility(input)
	switch decision {
	case models.DecisionBlockedPending:
		result.Pending = evidence.pending
	case models.DecisionOpenReturningApplicant:
		profile := evidence.student.Profile
		result.Prefill = &profile
	}
	return s.finish(result, decision, applicant.DocumentType, applicant), nil
}

// loadOfferings prefers the per-type endpoint and falls back to the shared
// availability snapshot when it fails.
func (s *EligibilityService) loadOfferings(ctx context.Context, courseTypeID int) []models.CourseOffering {
	offerings, err := s.offerings.ListOfferings(ctx, courseTypeID)
	if err == nil {
		return offerings
	}
	s.logger.Warn("course offerings lookup failed, using availability snapshot", zap.Int("course_type_id", courseTypeID), zap.Error(err))

	snapshot, snapErr := s.availability.Snapshot(ctx, false)
	if snapErr != nil {
		s.logger.Warn("availability snapshot is stale", zap.Error(snapErr))
	}
	return snapshot.ForCourseType(courseTypeID)
}

func (s *EligibilityService) gatherApplicantEvidence(ctx context.Context, applicant models.ApplicantIdentity) (*applicantEvidence, error) {
	g, ctx := errgroup.WithContext(ctx)
	evidence := &applicantEvidence{}

	g.Go(func() error {
		pending, err := s.applicants.FindPendingRequest(ctx, applicant)
		if err != nil {
			return err
		}
		evidence.pending = pending
		return nil
	})

	g.Go(func() error {
		student, err := s.applicants.FindStudent(ctx, applicant)
		if err != nil {
			return err
		}
		evidence.student = student
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evidence, nil
}

func (s *EligibilityService) finish(result *models.EligibilityResult, decision models.EligibilityDecision, documentType models.DocumentType, applicant *models.ApplicantIdentity) *models.EligibilityResult {
	result.Decision = decision
	result.RequiredFields = models.RequiredFields(decision, documentType)
	if err := DecisionError(decision); err != nil {
		result.Message = appErrors.FromError(err).Message
	}
	s.metrics.RecordDecision(decision)

	fields := []zap.Field{zap.String("catalog_key", result.CatalogKey), zap.String("decision", string(decision))}
	if applicant != nil {
		fields = append(fields, zap.String("applicant", identity.Fingerprint(*applicant)))
	}
	s.logger.Info("eligibility resolved", fields...)
	return result
}
