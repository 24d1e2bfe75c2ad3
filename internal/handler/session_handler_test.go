package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/internal/service"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

type fakeRegistry struct {
	view     *service.SessionView
	accepted bool
	err      error
	applied  models.ApplicantIdentity
	closed   string
}

func (f *fakeRegistry) Open(context.Context, string) (*service.SessionView, error) {
	return f.view, f.err
}

func (f *fakeRegistry) SubmitIdentity(_ string, applicant models.ApplicantIdentity) (*service.SessionView, bool, error) {
	f.applied = applicant
	return f.view, f.accepted, f.err
}

func (f *fakeRegistry) Decision(string) (*service.SessionView, error) {
	return f.view, f.err
}

func (f *fakeRegistry) Close(id string) {
	f.closed = id
}

func TestSessionHandlerOpen(t *testing.T) {
	registry := &fakeRegistry{view: &service.SessionView{ID: "s-1", CatalogKey: "lashista"}}
	handler := NewSessionHandler(registry, nil)

	c, rec := jsonContext(t, http.MethodPost, "/sessions", map[string]string{"catalog_key": "lashista"})
	handler.Open(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &view))
	assert.Equal(t, "s-1", view.ID)
}

func TestSessionHandlerSubmitIdentity(t *testing.T) {
	registry := &fakeRegistry{view: &service.SessionView{ID: "s-1", RequestID: 3, Pending: true}, accepted: true}
	handler := NewSessionHandler(registry, nil)

	c, rec := jsonContext(t, http.MethodPut, "/sessions/s-1/identity", map[string]string{"document_type": "Foreign", "document_value": "ab123456"})
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	handler.SubmitIdentity(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, models.ApplicantIdentity{DocumentType: models.DocumentTypeForeign, DocumentValue: "AB123456"}, registry.applied)

	registry.accepted = false
	registry.view = &service.SessionView{ID: "s-1"}
	c, rec = jsonContext(t, http.MethodPut, "/sessions/s-1/identity", map[string]string{"document_type": "national", "document_value": "17"})
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	handler.SubmitIdentity(c)
	assert.Equal(t, http.StatusOK, rec.Code, "short input is acknowledged without a lookup")
}

func TestSessionHandlerDecision(t *testing.T) {
	registry := &fakeRegistry{view: &service.SessionView{ID: "s-1", RequestID: 2, Pending: true}}
	handler := NewSessionHandler(registry, nil)

	c, rec := jsonContext(t, http.MethodGet, "/sessions/s-1/decision", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	handler.Decision(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["pending"])

	registry.view = &service.SessionView{ID: "s-1", RequestID: 2, Error: appErrors.Clone(appErrors.ErrFetchFailed, "applicant records could not be checked")}
	c, rec = jsonContext(t, http.MethodGet, "/sessions/s-1/decision", nil)
	handler.Decision(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	registry.view, registry.err = nil, service.ErrSessionNotFound
	c, rec = jsonContext(t, http.MethodGet, "/sessions/missing/decision", nil)
	handler.Decision(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandlerClose(t *testing.T) {
	registry := &fakeRegistry{}
	handler := NewSessionHandler(registry, nil)

	c, rec := jsonContext(t, http.MethodDelete, "/sessions/s-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "s-9"}}
	handler.Close(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "s-9", registry.closed)
}
