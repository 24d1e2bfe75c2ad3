package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/pkg/backend"
	"github.com/noah-isme/enrollment-gate/pkg/config"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return backend.NewClient(config.BackendConfig{BaseURL: server.URL, Timeout: time.Second}, nil, nil)
}

func TestListActiveCourseTypesAcceptsWrappedList(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/course-types", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"data":[{"id":3,"name":"Cosmetología","status":"active"}]}`))
	})

	types, err := NewCourseRepository(client).ListActiveCourseTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, 3, types[0].ID)
	assert.Nil(t, types[0].CatalogKey)
}

func TestOfferingsSummaryClampsOnIngest(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"course_type_id":1,"schedule_shift":"morning","status":"active","seats_available":30,"seats_capacity":20},
			{"course_type_id":1,"schedule_shift":"evening","status":"active","seats_available":-2,"seats_capacity":20},
			{"course_type_id":2,"schedule_shift":"morning","status":"active","seats_available":4,"seats_capacity":20}
		]`))
	})

	offerings, err := NewCourseRepository(client).OfferingsSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, offerings, 3)
	assert.Equal(t, 0, offerings[0].SeatsAvailable)
	assert.Equal(t, 0, offerings[1].SeatsAvailable)
	assert.Equal(t, 4, offerings[2].SeatsAvailable)
}

func TestListOfferingsPassesType(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`[]`))
	})

	offerings, err := NewCourseRepository(client).ListOfferings(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, offerings)
}

func TestApplicantLookupsTreatNotFoundAsAbsent(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AB1234", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNotFound)
	})
	repo := NewApplicantRepository(client)
	identity := models.ApplicantIdentity{DocumentType: models.DocumentTypeForeign, DocumentValue: " ab1234"}

	student, err := repo.FindStudent(context.Background(), identity)
	require.NoError(t, err)
	assert.Nil(t, student)

	pending, err := repo.FindPendingRequest(context.Background(), identity)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFindPendingRequestIgnoresReviewedRecords(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"catalog_course_name":"Lashista","code":"REQ-1","status":"approved"}`))
	})

	pending, err := NewApplicantRepository(client).FindPendingRequest(context.Background(), models.ApplicantIdentity{DocumentValue: "1710034065"})
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestFindStudentPropagatesServerErrors(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewApplicantRepository(client).FindStudent(context.Background(), models.ApplicantIdentity{DocumentValue: "1710034065"})
	require.Error(t, err)
	assert.False(t, backend.IsNotFound(err))
}

func TestSubmissionCreateUsesJSONWithoutFiles(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))
		var body map[string]string
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Equal(t, "card", body[models.FieldPaymentMethod])
			assert.Equal(t, "OPEN_RETURNING_APPLICANT", body["decision"])
			_, hasBank := body[models.FieldBank]
			assert.False(t, hasBank)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":"ENR-9"}`))
	})

	receipt, err := NewSubmissionRepository(client).Create(context.Background(), models.SubmissionForm{
		CourseTypeID:  4,
		Identity:      models.ApplicantIdentity{DocumentType: models.DocumentTypeNational, DocumentValue: "1710034065"},
		ScheduleShift: models.ShiftMorning,
		PaymentMethod: models.PaymentCard,
	}, models.DecisionOpenReturningApplicant)
	require.NoError(t, err)
	assert.Equal(t, "ENR-9", receipt.Code)
}

func TestSubmissionCreateReturnsStatusError(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"receipt number already used"}`))
	})

	_, err := NewSubmissionRepository(client).Create(context.Background(), models.SubmissionForm{
		PaymentMethod: models.PaymentCash,
		PaymentProof:  &models.UploadedFile{Purpose: models.FieldPaymentProof, Filename: "p.png", MimeType: "image/png", Size: 3, Content: strings.NewReader("png")},
	}, models.DecisionOpenNewApplicant)
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.Status)
	assert.Equal(t, "receipt number already used", statusErr.Message)
}
