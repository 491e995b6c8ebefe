// Package api exposes judgments over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"ephysval/adapters/model"
	"ephysval/adapters/observation"
	"ephysval/adapters/stats/datacond"
	"ephysval/app"
	"ephysval/domain/stats"
	"ephysval/domain/units"
	"ephysval/internal"
	"ephysval/internal/errors"
)

// JudgmentRequest is the body of POST /v1/judgments. The prediction is the
// recorded model output; the model is replayed rather than simulated.
type JudgmentRequest struct {
	Test        string          `json:"test"`
	Observation json.RawMessage `json:"observation" binding:"required"`
	Model       string          `json:"model" binding:"required"`
	Prediction  []float64       `json:"prediction" binding:"required,min=1"`
	Unit        string          `json:"unit"`
	Confidence  string          `json:"confidence"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler serves judgment requests
type Handler struct {
	definitions  map[string]app.Definition
	checker      *datacond.Checker
	confidence   stats.ConfidenceLevel
	modelTimeout time.Duration
	logger       *internal.Logger
}

// HandlerConfig carries the judgment defaults applied to each request
type HandlerConfig struct {
	Confidence   stats.ConfidenceLevel
	ModelTimeout time.Duration
	Datacond     datacond.Options
	Logger       *internal.Logger
}

// NewHandler creates a handler serving every registered definition
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = internal.DefaultLogger
	}
	if cfg.Confidence == 0 {
		cfg.Confidence = stats.DefaultConfidence
	}
	return &Handler{
		definitions:  app.Definitions(),
		checker:      datacond.NewChecker(cfg.Datacond),
		confidence:   cfg.Confidence,
		modelTimeout: cfg.ModelTimeout,
		logger:       cfg.Logger,
	}
}

// NewRouter wires the handler routes into a gin engine
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	v1.GET("/health", HealthCheck)
	v1.GET("/tests", h.ListTests)
	v1.POST("/judgments", h.CreateJudgment)
	return router
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListTests returns the names of the available validation tests
func (h *Handler) ListTests(c *gin.Context) {
	names := make([]string, 0, len(h.definitions))
	for name := range h.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"tests": names})
}

// CreateJudgment validates the observation, replays the prediction and
// returns the score.
func (h *Handler) CreateJudgment(c *gin.Context) {
	var req JudgmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	if req.Test == "" {
		req.Test = app.SomaInputResistance().Name
	}
	def, ok := h.definitions[req.Test]
	if !ok {
		h.fail(c, errors.NotFound("test "+req.Test))
		return
	}

	unit := units.Unit(req.Unit)
	if !unit.Known() {
		h.fail(c, errors.InvalidInput("unknown prediction unit "+req.Unit))
		return
	}

	confidence := h.confidence
	if req.Confidence != "" {
		level, err := stats.ParseConfidenceLevel(req.Confidence)
		if err != nil {
			h.fail(c, errors.WithCode(errors.CodeInvalidInput, err))
			return
		}
		confidence = level
	}

	raw, err := observation.Parse(req.Observation)
	if err != nil {
		h.fail(c, err)
		return
	}

	launcher := model.NewReplayLauncher()
	launcher.Record(req.Model, req.Prediction, unit)

	vt, err := app.NewValidationTest(def, launcher,
		app.WithConfidence(confidence),
		app.WithChecker(h.checker),
		app.WithLogger(h.logger),
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.modelTimeout)
		defer cancel()
	}

	score, err := vt.Judge(ctx, raw, model.Cell{ModelName: req.Model})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("judgment request failed: %v", err)
	} else {
		h.logger.Debug("judgment request rejected: %v", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
