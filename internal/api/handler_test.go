package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/jellyfin-newsletter/internal/newsletter"
)

type fakeRunner struct {
	report  *newsletter.RunReport
	runErr  error
	preview string
	prevErr error
	block   chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context) (*newsletter.RunReport, error) {
	if f.block != nil {
		<-f.block
	}
	return f.report, f.runErr
}

func (f *fakeRunner) Preview(ctx context.Context, name string) (string, error) {
	return f.preview, f.prevErr
}

func TestHandleHealth(t *testing.T) {
	h := NewHandler(&fakeRunner{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleRun(t *testing.T) {
	started := time.Now()
	runner := &fakeRunner{report: &newsletter.RunReport{
		RunID:    "run-1",
		Started:  started,
		Finished: started.Add(2 * time.Second),
		Results: []newsletter.RecipientResult{
			{Recipient: newsletter.Recipient{Name: "Alice"}},
			{Recipient: newsletter.Recipient{Name: "Bob"}, Stage: newsletter.StageFetch, Err: errors.New("boom")},
		},
	}}
	h := NewHandler(runner, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary runSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 2, summary.Recipients)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "Bob", summary.Failed[0].Recipient)
	assert.Equal(t, newsletter.StageFetch, summary.Failed[0].Stage)
}

func TestHandleRunFailure(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("server unreachable")}
	h := NewHandler(runner, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleRunConflict(t *testing.T) {
	runner := &fakeRunner{
		report: &newsletter.RunReport{},
		block:  make(chan struct{}),
	}
	h := NewHandler(runner, zerolog.Nop())
	router := h.Routes()

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	}()

	// Wait for the first run to be marked in flight
	require.Eventually(t, h.running.Load, time.Second, time.Millisecond)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(runner.block)
	<-firstDone
}

func TestHandlePreview(t *testing.T) {
	runner := &fakeRunner{preview: "<html>preview</html>"}
	h := NewHandler(runner, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/preview/Alice", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>preview</html>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestHandlePreviewUnknown(t *testing.T) {
	runner := &fakeRunner{prevErr: errors.New("not configured")}
	h := NewHandler(runner, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/preview/Nobody", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
