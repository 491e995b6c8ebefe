package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ephysval/domain/stats"
	"ephysval/internal"
	"ephysval/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const rinObservation = `{
  "mean": 120, "SD": 20, "sample_size": 5, "units": "Mohm",
  "raw_data": [100, 110, 120, 130, 140],
  "protocol_parameters": {
    "temperature": 23, "initial_resting_Vm": -65,
    "current_amplitude": -0.5, "current_unit": "nA"
  }
}`

func newTestRouter() *gin.Engine {
	return NewRouter(NewHandler(HandlerConfig{Logger: internal.Discard()}))
}

func post(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/judgments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListTests(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/tests", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "soma_input_resistance")
}

func TestCreateJudgment(t *testing.T) {
	router := newTestRouter()

	w := post(t, router, map[string]interface{}{
		"observation": json.RawMessage(rinObservation),
		"model":       "purkinje",
		"prediction":  []float64{180},
		"unit":        "Mohm",
		"confidence":  "99",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var score stats.Score
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &score))
	assert.Equal(t, "soma_input_resistance", score.Test)
	assert.Equal(t, stats.ScoreTypeT, score.Type)
	assert.InDelta(t, -6.7082, score.Value, 1e-3)
	assert.True(t, score.Rejected)
	assert.Equal(t, 0.99, score.Statistics["confidence"])
	assert.NotEmpty(t, score.JudgmentID)
}

func TestCreateJudgmentErrors(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "missing model",
			body:   map[string]interface{}{"observation": json.RawMessage(rinObservation), "prediction": []float64{1}},
			status: http.StatusBadRequest,
			code:   errors.CodeInvalidInput,
		},
		{
			name: "unknown test",
			body: map[string]interface{}{
				"test": "spike_height", "observation": json.RawMessage(rinObservation),
				"model": "m", "prediction": []float64{1},
			},
			status: http.StatusNotFound,
			code:   errors.CodeNotFound,
		},
		{
			name: "bad confidence",
			body: map[string]interface{}{
				"observation": json.RawMessage(rinObservation), "model": "m",
				"prediction": []float64{1}, "confidence": "42",
			},
			status: http.StatusBadRequest,
			code:   errors.CodeInvalidInput,
		},
		{
			name: "observation without units",
			body: map[string]interface{}{
				"observation": json.RawMessage(`{"mean": 1, "SD": 1, "sample_size": 3, "raw_data": [1, 2, 3]}`),
				"model":       "m", "prediction": []float64{1},
			},
			status: http.StatusUnprocessableEntity,
			code:   errors.CodeObservationError,
		},
		{
			name: "incompatible prediction unit",
			body: map[string]interface{}{
				"observation": json.RawMessage(rinObservation), "model": "m",
				"prediction": []float64{-65}, "unit": "mV",
			},
			status: http.StatusBadGateway,
			code:   errors.CodeModelExecution,
		},
		{
			name: "empty prediction",
			body: map[string]interface{}{
				"observation": json.RawMessage(rinObservation), "model": "m",
				"prediction": []float64{},
			},
			status: http.StatusBadRequest,
			code:   errors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, router, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}
