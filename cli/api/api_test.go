package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oaiiae/contactbook/datastores"
)

func newTestRouter(t *testing.T, logs *bytes.Buffer) http.Handler {
	t.Helper()
	store := datastores.NewContactsInmem(
		&datastores.Contact{Name: "Ada Lovelace"},
		&datastores.Contact{Name: "Bob"},
	)
	return NewRouter(&RouterOptions{EndpointsPrefix: "/api"},
		"Contact Book", "test", "abc123", "2026-10-19",
		store, slog.New(slog.NewTextHandler(logs, nil)))
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter_Health(t *testing.T) {
	h := newTestRouter(t, new(bytes.Buffer))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/liveness").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/readiness").Code)
}

func TestNewRouter_Contacts(t *testing.T) {
	var logs bytes.Buffer
	h := newTestRouter(t, &logs)

	w := serve(h, http.MethodGet, "/api/contacts/")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
	assert.Contains(t, logs.String(), "GET /api/contacts/")
	assert.Contains(t, logs.String(), "status=200")

	w = serve(h, http.MethodGet, "/api/contacts/by-name/zzz")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, logs.String(), `level=INFO msg="contact not found"`)
}

func TestNewRouter_LogsContactID(t *testing.T) {
	var logs bytes.Buffer
	store := datastores.NewContactsInmem()
	id, err := store.Create(t.Context(), &datastores.Contact{Name: "Ada Lovelace"})
	require.NoError(t, err)
	h := NewRouter(&RouterOptions{EndpointsPrefix: "/api"},
		"Contact Book", "test", "", "",
		store, slog.New(slog.NewTextHandler(&logs, nil)))

	w := serve(h, http.MethodGet, "/api/contacts/"+id.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, logs.String(), "contact="+id.String())
	assert.Contains(t, logs.String(), "status=200")

	logs.Reset()
	require.NoError(t, store.Delete(t.Context(), id))
	w = serve(h, http.MethodGet, "/api/contacts/"+id.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, logs.String(), `msg="contact not found"`)
	assert.Equal(t, 2, strings.Count(logs.String(), "contact="+id.String()), logs.String())
}

func TestNewRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, new(bytes.Buffer))
	serve(h, http.MethodGet, "/api/contacts/")

	w := serve(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `build_info{goversion="`)
	assert.Contains(t, body, `version="test"`)
	assert.Contains(t, body, "contacts_stored 2")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/contacts/",status="200"} 1`)
}
