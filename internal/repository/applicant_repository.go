package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/pkg/backend"
)

type jsonGetter interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error
}

// ApplicantRepository resolves identities against student and request records.
type ApplicantRepository struct {
	client jsonGetter
}

// NewApplicantRepository constructs an applicant repository.
func NewApplicantRepository(client jsonGetter) *ApplicantRepository {
	return &ApplicantRepository{client: client}
}

// FindStudent returns the existing student for the identity, or nil when the
// backend answers 404.
func (r *ApplicantRepository) FindStudent(ctx context.Context, identity models.ApplicantIdentity) (*models.ExistingStudentRecord, error) {
	var record models.ExistingStudentRecord
	query := url.Values{"id": {identity.Key()}}
	if err := r.client.GetJSON(ctx, endpointStudentLookup, query, &record); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("student lookup: %w", err)
	}
	return &record, nil
}

// FindPendingRequest returns a request still awaiting review, or nil when none
// exists. Records in any other status are ignored.
func (r *ApplicantRepository) FindPendingRequest(ctx context.Context, identity models.ApplicantIdentity) (*models.PendingRequestRecord, error) {
	var record models.PendingRequestRecord
	query := url.Values{"id": {identity.Key()}}
	if err := r.client.GetJSON(ctx, endpointPendingLookup, query, &record); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending request lookup: %w", err)
	}
	if record.Status != "" && !strings.EqualFold(record.Status, models.PendingRequestStatus) {
		return nil, nil
	}
	return &record, nil
}
