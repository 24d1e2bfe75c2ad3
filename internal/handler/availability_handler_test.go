package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-gate/internal/dto"
	"github.com/noah-isme/enrollment-gate/internal/middleware"
	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/internal/service"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
	"github.com/noah-isme/enrollment-gate/pkg/jobs"
)

var fetchedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeAvailability struct {
	snapshot *models.AvailabilitySnapshot
	err      error
	forced   bool
}

func (f *fakeAvailability) Snapshot(_ context.Context, forceRefresh bool) (*models.AvailabilitySnapshot, error) {
	f.forced = forceRefresh
	return f.snapshot, f.err
}

func (f *fakeAvailability) SeatsByCourseType(context.Context) (map[int]*models.CourseTypeSeats, *models.AvailabilitySnapshot, error) {
	return f.snapshot.SeatsByCourseType(), f.snapshot, f.err
}

func (f *fakeAvailability) SeatsForShift(_ context.Context, courseTypeID int, shift models.ScheduleShift, forceRefresh bool) (int, error) {
	f.forced = forceRefresh
	return f.snapshot.SeatsForShift(courseTypeID, shift), f.err
}

func (f *fakeAvailability) State() service.CacheState {
	return service.CacheState{Snapshot: f.snapshot, LastAttempt: fetchedAt, LastCount: len(f.snapshot.Offerings), Baselined: true}
}

type fakeEvents struct {
	event *models.NewOfferingsEvent
}

func (f *fakeEvents) LastEvent() *models.NewOfferingsEvent { return f.event }

func (f *fakeEvents) Stats() jobs.Stats { return jobs.Stats{Processed: 2, Dropped: 1} }

type fakeCatalog struct {
	invalidated bool
	err         error
}

func (f *fakeCatalog) Invalidate(context.Context) error {
	f.invalidated = true
	return f.err
}

func availabilityFixture() *fakeAvailability {
	return &fakeAvailability{snapshot: &models.AvailabilitySnapshot{
		FetchedAt: fetchedAt,
		Offerings: []models.CourseOffering{
			{CourseTypeID: 9, ScheduleShift: models.ShiftEvening, Status: models.OfferingStatusActive, SeatsAvailable: 2, SeatsCapacity: 10},
			{CourseTypeID: 7, ScheduleShift: models.ShiftMorning, Status: models.OfferingStatusActive, SeatsAvailable: 4, SeatsCapacity: 20},
			{CourseTypeID: 7, ScheduleShift: models.ShiftEvening, Status: models.OfferingStatusPlanned, SeatsAvailable: 0, SeatsCapacity: 20},
		},
	}}
}

func TestAvailabilityOverview(t *testing.T) {
	events := &fakeEvents{event: &models.NewOfferingsEvent{Delta: 1, Total: 3}}
	handler := NewAvailabilityHandler(availabilityFixture(), events, nil, nil, nil)

	c, rec := jsonContext(t, http.MethodGet, "/availability", nil)
	handler.Overview(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Meta["stale"])
	assert.NotNil(t, envelope.Meta["new_offerings"])

	var body dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &body))
	require.Len(t, body.CourseTypes, 2)
	assert.Equal(t, 7, body.CourseTypes[0].CourseTypeID)
	assert.Equal(t, 4, body.CourseTypes[0].Available)
	assert.True(t, body.CourseTypes[0].HasPlanned)
	assert.True(t, fetchedAt.Equal(body.FetchedAt))
}

func TestAvailabilityOverviewServesStaleData(t *testing.T) {
	source := availabilityFixture()
	source.err = appErrors.Wrap(errors.New("timeout"), appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
	handler := NewAvailabilityHandler(source, nil, nil, nil, nil)

	c, rec := jsonContext(t, http.MethodGet, "/availability", nil)
	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["stale"])
	assert.Equal(t, appErrors.CodeFetchFailed, envelope.Meta["stale_reason"])
}

func TestAvailabilityShiftSeats(t *testing.T) {
	source := availabilityFixture()
	handler := NewAvailabilityHandler(source, nil, nil, nil, nil)

	c, rec := jsonContext(t, http.MethodGet, "/availability/7/Morning", nil)
	c.Params = gin.Params{{Key: "courseTypeId", Value: "7"}, {Key: "shift", Value: "Morning"}}
	handler.ShiftSeats(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.ShiftSeatsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, 4, body.Seats)
	assert.Equal(t, models.ShiftMorning, body.ScheduleShift)
	assert.False(t, source.forced, "display reads never force a refresh")

	c, rec = jsonContext(t, http.MethodGet, "/availability/x/morning", nil)
	c.Params = gin.Params{{Key: "courseTypeId", Value: "x"}, {Key: "shift", Value: "morning"}}
	handler.ShiftSeats(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonContext(t, http.MethodGet, "/availability/7/night", nil)
	c.Params = gin.Params{{Key: "courseTypeId", Value: "7"}, {Key: "shift", Value: "night"}}
	handler.ShiftSeats(c)
	assert.Equal(t, models.FieldScheduleShift, decodeEnvelope(t, rec).Error.Field)
}

func TestAvailabilityRefresh(t *testing.T) {
	source := availabilityFixture()
	catalog := &fakeCatalog{}
	handler := NewAvailabilityHandler(source, &fakeEvents{}, catalog, nil, nil)

	c, rec := jsonContext(t, http.MethodPost, "/admin/availability/refresh", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleAdmin})
	handler.Refresh(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, source.forced)
	assert.True(t, catalog.invalidated)

	var body dto.RefreshResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, 3, body.Offerings)
	assert.True(t, body.CatalogInvalidated)
}

func TestAvailabilityRefreshFailure(t *testing.T) {
	source := availabilityFixture()
	source.err = appErrors.Clone(appErrors.ErrFetchFailed, "")
	catalog := &fakeCatalog{}
	handler := NewAvailabilityHandler(source, nil, catalog, nil, nil)

	c, rec := jsonContext(t, http.MethodPost, "/admin/availability/refresh", nil)
	handler.Refresh(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, catalog.invalidated)
}

type sessionCount int

func (s sessionCount) Len() int { return int(s) }

func TestAvailabilityState(t *testing.T) {
	handler := NewAvailabilityHandler(availabilityFixture(), &fakeEvents{}, nil, sessionCount(4), nil)

	c, rec := jsonContext(t, http.MethodGet, "/admin/availability/state", nil)
	handler.State(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.CacheStateResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, 3, body.Offerings)
	assert.Equal(t, 4, body.OpenSessions)
	assert.Equal(t, uint64(2), body.NotifyProcessed)
	assert.Equal(t, uint64(1), body.NotifyDropped)
	assert.True(t, body.Baselined)
}
