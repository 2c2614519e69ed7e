package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itohio/dietemp/pkg/calib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestLatest(t *testing.T) {
	var l Latest
	_, ok := l.Get()
	assert.False(t, ok)

	l.Report(steadyReading)
	l.Report(failedReading)

	r, ok := l.Get()
	require.True(t, ok)
	assert.Error(t, r.Err)
}

func TestServer_Healthz(t *testing.T) {
	s := NewServer(":0", &Latest{}, nil)

	w := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Reading(t *testing.T) {
	latest := &Latest{}
	s := NewServer(":0", latest, nil)

	w := get(t, s, "/reading")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	latest.Report(steadyReading)
	w = get(t, s, "/reading")
	require.Equal(t, http.StatusOK, w.Code)

	var p Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "steady", p.Phase)
	require.NotNil(t, p.TemperatureC)
	assert.Equal(t, 36.5, *p.TemperatureC)
}

func TestServer_Calibration(t *testing.T) {
	w := get(t, NewServer(":0", &Latest{}, nil), "/calibration")
	assert.Equal(t, http.StatusNotFound, w.Code)

	cal, err := calib.New(calib.NewStatic(1738, 1287, 1528), calib.DefaultReference(), 12)
	require.NoError(t, err)

	w = get(t, NewServer(":0", &Latest{}, cal), "/calibration")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1528.0, got["vref_cal"])
	assert.Equal(t, 1210.0, got["vref_nominal_mv"])
	assert.Less(t, got["slope"], 0.0)
}
