package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResponder_SendJson(t *testing.T) {
	rr := &Responder{}
	rec := httptest.NewRecorder()

	rr.SendJson(rec, context.Background(), map[string]int{"remaining": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"remaining":3}`, rec.Body.String())
}

func TestResponder_ServerErrorHidesMessage(t *testing.T) {
	rr := &Responder{}
	rec := httptest.NewRecorder()

	rr.RespondAndLogError(rec, context.Background(), errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.NotContains(t, body["error"], "connection refused")
	assert.Contains(t, body["error"], body["err_id"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestResponder_DebugModeShowsMessage(t *testing.T) {
	rr := &Responder{DebugMode: true}
	rec := httptest.NewRecorder()

	rr.RespondAndLogError(rec, context.Background(), errors.New("connection refused"))

	assert.Equal(t, "Connection refused", decode(t, rec)["error"])
}

func TestResponder_ClientErrorShowsMessage(t *testing.T) {
	rr := &Responder{}
	rec := httptest.NewRecorder()

	rr.RespondAndLogCustom(rec, context.Background(), errors.New("invalid session token"), slog.LevelInfo, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid session token", decode(t, rec)["error"])
}

func TestResponder_SendXml(t *testing.T) {
	type doc struct {
		Title string `xml:"title"`
	}

	rr := &Responder{}
	rec := httptest.NewRecorder()

	rr.SendXml(rec, context.Background(), "application/atom+xml", doc{Title: "Dune"})

	assert.Equal(t, "application/atom+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<?xml")
	assert.Contains(t, rec.Body.String(), "<title>Dune</title>")
}
