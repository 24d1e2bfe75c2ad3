package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

// Backend endpoints consumed by the repositories.
const (
	endpointCourseTypes      = "course-types"
	endpointCourseOfferings  = "course-offerings"
	endpointOfferingsSummary = "offerings-summary"
	endpointStudentLookup    = "student-lookup"
	endpointPendingLookup    = "pending-request-lookup"
	endpointSubmission       = "enrollment-submission"
)

// listPayload accepts either a bare JSON array or {"data": [...]}.
type listPayload[T any] struct {
	Items []T
}

func (p *listPayload[T]) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Items)
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	p.Items = wrapped.Data
	return nil
}

// CourseRepository reads course types and offerings from the backend.
type CourseRepository struct {
	client jsonGetter
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(client jsonGetter) *CourseRepository {
	return &CourseRepository{client: client}
}

// ListActiveCourseTypes returns course types with status=active.
func (r *CourseRepository) ListActiveCourseTypes(ctx context.Context) ([]models.CourseTypeRecord, error) {
	var payload listPayload[models.CourseTypeRecord]
	query := url.Values{"status": {string(models.CourseTypeStatusActive)}}
	if err := r.client.GetJSON(ctx, endpointCourseTypes, query, &payload); err != nil {
		return nil, fmt.Errorf("list course types: %w", err)
	}
	if payload.Items == nil {
		return []models.CourseTypeRecord{}, nil
	}
	return payload.Items, nil
}

// ListOfferings returns the offerings of one course type, clamped on ingest.
func (r *CourseRepository) ListOfferings(ctx context.Context, courseTypeID int) ([]models.CourseOffering, error) {
	var payload listPayload[models.CourseOffering]
	query := url.Values{"type": {strconv.Itoa(courseTypeID)}}
	if err := r.client.GetJSON(ctx, endpointCourseOfferings, query, &payload); err != nil {
		return nil, fmt.Errorf("list offerings for course type %d: %w", courseTypeID, err)
	}
	return clampOfferings(payload.Items), nil
}

// OfferingsSummary returns every offering across course types, clamped on ingest.
func (r *CourseRepository) OfferingsSummary(ctx context.Context) ([]models.CourseOffering, error) {
	var payload listPayload[models.CourseOffering]
	if err := r.client.GetJSON(ctx, endpointOfferingsSummary, nil, &payload); err != nil {
		return nil, fmt.Errorf("offerings summary: %w", err)
	}
	return clampOfferings(payload.Items), nil
}

func clampOfferings(offerings []models.CourseOffering) []models.CourseOffering {
	result := make([]models.CourseOffering, 0, len(offerings))
	for _, offering := range offerings {
		result = append(result, offering.Clamped())
	}
	return result
}
