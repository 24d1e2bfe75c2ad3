package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/enrollment-gate/pkg/config"
)

type observerStub struct {
	mu    sync.Mutex
	calls []string
}

func (o *observerStub) ObserveBackendCall(endpoint string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, endpoint)
}

func TestGetJSONSendsQueryAndAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/course-offerings", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("type"))
		assert.Equal(t, "secret", r.Header.Get(apiKeyHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	t.Cleanup(server.Close)

	observer := &observerStub{}
	client := NewClient(config.BackendConfig{BaseURL: server.URL + "/api/", APIKey: "secret"}, observer, nil)

	var dest struct {
		Value int `json:"value"`
	}
	err := client.GetJSON(context.Background(), "course-offerings", url.Values{"type": {"7"}}, &dest)
	require.NoError(t, err)
	assert.Equal(t, 42, dest.Value)
	assert.Equal(t, []string{"course-offerings"}, observer.calls)
}

func TestNonSuccessReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"student not found"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.BackendConfig{BaseURL: server.URL}, nil, nil)
	err := client.GetJSON(context.Background(), "student-lookup", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "student not found", statusErr.Message)
}

func TestErrorMessageFallsBackToRawBody(t *testing.T) {
	assert.Equal(t, "boom", errorMessage([]byte("boom"), "500 Internal Server Error"))
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":"bad"}`), ""))
	assert.Equal(t, "502 Bad Gateway", errorMessage(nil, "502 Bad Gateway"))
}

func TestPostMultipartStreamsFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "R-1", r.FormValue("receipt_number"))
		file, header, err := r.FormFile("payment_proof")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "proof.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(content))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":"ENR-1"}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.BackendConfig{BaseURL: server.URL}, nil, nil)
	var dest struct {
		Code string `json:"code"`
	}
	err := client.PostMultipart(context.Background(), "enrollment-submission",
		map[string]string{"receipt_number": "R-1"},
		[]FilePart{{Field: "payment_proof", Filename: "proof.pdf", ContentType: "application/pdf", Content: strings.NewReader("%PDF-1.4")}},
		&dest)
	require.NoError(t, err)
	assert.Equal(t, "ENR-1", dest.Code)
}

func TestTransportFailureIsWrapped(t *testing.T) {
	client := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil, nil)
	err := client.PostJSON(context.Background(), "enrollment-submission", map[string]string{}, nil)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "enrollment-submission")
}

func TestCallsAreTraced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	client := NewClient(config.BackendConfig{BaseURL: server.URL}, nil, nil)
	client.tracer = provider.Tracer(tracerName)

	err := client.GetJSON(context.Background(), "course-types", nil, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "backend GET course-types", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.response.status_code", http.StatusBadGateway))
}
