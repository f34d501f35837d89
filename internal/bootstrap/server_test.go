package bootstrap_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadpnp/person-registry/internal/bootstrap"
	"github.com/mohammadpnp/person-registry/internal/config"
	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
	"github.com/mohammadpnp/person-registry/internal/testutil"
)

type failingStore struct{}

func (failingStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, policy domain.DeletePolicy) *echo.Echo {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	gateway := testutil.NewSQLiteGateway(t, db.Options{Observer: m})

	records := config.Default().Records
	records.DeletePolicy = string(policy)
	services, err := bootstrap.NewServices(gateway, records, testutil.DiscardLogger(), m)
	require.NoError(t, err)

	return bootstrap.NewHTTPServer(bootstrap.ServerDeps{
		Persons:     services.Persons,
		Addresses:   services.Addresses,
		Store:       gateway,
		Gatherer:    reg,
		Logger:      testutil.DiscardLogger(),
		ServiceName: "person-registry-test",
		RetryAfter:  time.Second,
	})
}

func call(server *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRejectPolicyOverHTTP(t *testing.T) {
	server := newTestServer(t, domain.DeleteReject)

	rec := call(server, http.MethodPost, "/persons", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), dataOf(t, rec)["person_id"])

	rec = call(server, http.MethodPost, "/addresses", `{"person_id":1,"street":"Main St"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), dataOf(t, rec)["address_id"])

	rec = call(server, http.MethodDelete, "/persons/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusOK, call(server, http.MethodGet, "/persons/1", "").Code)
	assert.Equal(t, http.StatusOK, call(server, http.MethodGet, "/addresses/1", "").Code)
}

func TestCascadePolicyOverHTTP(t *testing.T) {
	server := newTestServer(t, domain.DeleteCascade)

	require.Equal(t, http.StatusCreated, call(server, http.MethodPost, "/persons", `{"name":"Ada"}`).Code)
	require.Equal(t, http.StatusCreated, call(server, http.MethodPost, "/addresses", `{"person_id":1,"street":"Main St"}`).Code)

	rec := call(server, http.MethodDelete, "/persons/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Addresses-Deleted"))

	assert.Equal(t, http.StatusNotFound, call(server, http.MethodGet, "/addresses/1", "").Code)
	assert.Equal(t, http.StatusNotFound, call(server, http.MethodGet, "/persons/1", "").Code)
}

func TestAddressForMissingPersonOverHTTP(t *testing.T) {
	server := newTestServer(t, domain.DeleteReject)

	rec := call(server, http.MethodPost, "/addresses", `{"person_id":9,"street":"Main St"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(server, http.MethodGet, "/addresses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dataOf(t, rec)["items"])
}

func TestOperationalEndpoints(t *testing.T) {
	server := newTestServer(t, domain.DeleteReject)

	assert.Equal(t, http.StatusOK, call(server, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, call(server, http.MethodGet, "/readyz", "").Code)

	require.Equal(t, http.StatusCreated, call(server, http.MethodPost, "/persons", `{"name":"Ada"}`).Code)

	rec := call(server, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `registry_records_created_total{kind="person"} 1`)
	assert.Contains(t, rec.Body.String(), "registry_unit_of_work_duration_seconds")
}

func TestReadinessFailsWhenStoreIsDown(t *testing.T) {
	t.Parallel()

	server := bootstrap.NewHTTPServer(bootstrap.ServerDeps{
		Store:  failingStore{},
		Logger: testutil.DiscardLogger(),
	})

	assert.Equal(t, http.StatusServiceUnavailable, call(server, http.MethodGet, "/readyz", "").Code)
}

func TestNewServicesRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	records := config.Default().Records
	records.DeletePolicy = "orphan"

	_, err := bootstrap.NewServices(nil, records, testutil.DiscardLogger(), nil)
	require.ErrorIs(t, err, domain.ErrUnknownDeletePolicy)
}
