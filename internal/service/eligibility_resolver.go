package service

import (
	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

// EligibilityInput is everything ResolveEligibility looks at. Identity is nil
// until the applicant has entered a document.
type EligibilityInput struct {
	CourseType *models.CourseTypeRecord
	Offerings  []models.CourseOffering
	Identity   *models.ApplicantIdentity
	Pending    *models.PendingRequestRecord
	Student    *models.ExistingStudentRecord
}

// ResolveEligibility applies the decision rules in priority order; the first
// rule that matches wins.
func ResolveEligibility(in EligibilityInput) models.EligibilityDecision {
	if in.CourseType == nil {
		return models.DecisionUnresolved
	}
	if !in.CourseType.Active() || !enrollmentOpen(in.CourseType.ID, in.Offerings) {
		return models.DecisionClosed
	}
	if in.Identity == nil {
		return models.DecisionOpenNewApplicant
	}
	if in.Pending != nil {
		return models.DecisionBlockedPending
	}
	if in.Student != nil {
		if in.Student.EnrolledIn(in.CourseType.ID) {
			return models.DecisionBlockedDuplicate
		}
		return models.DecisionOpenReturningApplicant
	}
	return models.DecisionOpenNewApplicant
}

// enrollmentOpen reports an active offering with trusted seats or any planned
// offering for the course type.
func enrollmentOpen(courseTypeID int, offerings []models.CourseOffering) bool {
	for _, offering := range offerings {
		if !offering.BelongsTo(courseTypeID) {
			continue
		}
		if offering.HasOpenSeats() || offering.Planned() {
			return true
		}
	}
	return false
}

// DecisionError maps a blocking decision to its error kind, or nil for open ones.
func DecisionError(decision models.EligibilityDecision) error {
	switch decision {
	case models.DecisionUnresolved:
		return appErrors.Clone(appErrors.ErrUnresolved, "")
	case models.DecisionClosed:
		return appErrors.Clone(appErrors.ErrClosed, "")
	case models.DecisionBlockedPending:
		return appErrors.Clone(appErrors.ErrBlockedPending, "")
	case models.DecisionBlockedDuplicate:
		return appErrors.Clone(appErrors.ErrBlockedDuplicate, "")
	case models.DecisionOpenNewApplicant, models.DecisionOpenReturningApplicant:
		return nil
	default:
		return appErrors.Clone(appErrors.ErrUnresolved, "unknown eligibility decision")
	}
}
