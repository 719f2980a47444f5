package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Camilejo/TallerBDRedis/adapters/controller"
	"github.com/Camilejo/TallerBDRedis/adapters/gateway/broker"
	"github.com/Camilejo/TallerBDRedis/model"
	"github.com/Camilejo/TallerBDRedis/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Simulator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bridge := broker.New(broker.Config{LogLevel: 3})
	sim := service.NewSimulator(service.SimulatorConfig{Seed: 1, LogLevel: 3}, bridge)
	ingest := service.NewIngest(bridge)

	a := NewApi(controller.ControllerConfig{Port: 0, LogLevel: 3, TickInterval: 10}, sim, ingest, bridge)

	router := gin.New()
	a.routes(router)
	return router, sim
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestRequiresCity(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/sensors", `{"temperature":18.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "city")
}

func TestIngestThenQueryLatest(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/sensors", `{"city":"Bogotá","temperature":18.5}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/sensors/bogota", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"city":"Bogotá","temperature":18.5}`, w.Body.String())
}

func TestQueryUnknownCity(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/sensors/macondo", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSensors(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/sensors", "")
	require.Equal(t, http.StatusOK, w.Code)

	var sensors []model.Sensor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensors))
	assert.Len(t, sensors, len(service.Locations()))
}

func TestSensorByID(t *testing.T) {
	router, sim := newTestRouter(t)
	want := sim.Sensors()[0]

	w := do(router, http.MethodGet, "/api/v1/sensors/"+want.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var sensor model.Sensor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sensor))
	assert.Equal(t, want.ID, sensor.ID)

	w = do(router, http.MethodGet, "/api/v1/sensors/sensor-999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSensorHistoryEndpoint(t *testing.T) {
	router, sim := newTestRouter(t)
	id := sim.Sensors()[0].ID

	w := do(router, http.MethodGet, "/api/v1/sensors/"+id+"/history?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view model.HistoryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, id, view.SensorID)
	assert.Len(t, view.Readings, 10)

	w = do(router, http.MethodGet, "/api/v1/sensors/sensor-999/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertsEndpointAndResolve(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = do(router, http.MethodPost, "/api/v1/alerts/no-such-alert/resolve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.SystemStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, len(service.Locations()), stats.TotalSensors)
	assert.Positive(t, stats.DataPoints)
}

func TestSimulationStartStop(t *testing.T) {
	router, sim := newTestRouter(t)
	defer sim.Stop()

	w := do(router, http.MethodPost, "/api/v1/simulation/start", `{"interval":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"interval":1`)

	w = do(router, http.MethodPost, "/api/v1/simulation/stop", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/readyz", "").Code)
}
