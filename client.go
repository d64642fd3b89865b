package rowsync

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rowsync/rowsync/errors"
	"github.com/rowsync/rowsync/internal/control"
	"github.com/rowsync/rowsync/internal/engine"
	"github.com/rowsync/rowsync/internal/gridapi"
	"github.com/rowsync/rowsync/rowtypes"
)

// Re-exported shared types so callers rarely need to import rowtypes
// directly.
type (
	// Row is one row of local data.
	Row = rowtypes.Row

	// Dataset is the local tabular input to a sync run.
	Dataset = rowtypes.Dataset

	// Record is a remote record.
	Record = rowtypes.Record

	// RecordUpdate pairs a local row with its matched remote record.
	RecordUpdate = rowtypes.RecordUpdate

	// Policy selects the reconciliation policy.
	Policy = rowtypes.Policy

	// SyncPlan is the reconciliation output.
	SyncPlan = rowtypes.SyncPlan

	// SyncResult summarizes a completed run.
	SyncResult = rowtypes.SyncResult
)

// Reconciliation policies.
const (
	PolicyFull        = rowtypes.PolicyFull
	PolicyIncremental = rowtypes.PolicyIncremental
	PolicyOverwrite   = rowtypes.PolicyOverwrite
	PolicyClone       = rowtypes.PolicyClone
)

// Retry policies.
const (
	RetryExponential = rowtypes.RetryExponential
	RetryLinear      = rowtypes.RetryLinear
	RetryFixed       = rowtypes.RetryFixed
)

// Rate-limit policies.
const (
	RateFixedWait     = rowtypes.RateFixedWait
	RateSlidingWindow = rowtypes.RateSlidingWindow
	RateFixedWindow   = rowtypes.RateFixedWindow
)

// Client is a rowsync client bound to one grid API endpoint. It is safe for
// concurrent use; all requests share one rate limiter.
type Client struct {
	config rowtypes.ClientConfig
	engine *engine.Engine
	logger *slog.Logger
}

// defaultConfig returns the configuration used before options are applied.
func defaultConfig() rowtypes.ClientConfig {
	return rowtypes.ClientConfig{
		Timeout:        60 * time.Second,
		RetryPolicy:    rowtypes.RetryExponential,
		InitialDelay:   time.Second,
		Multiplier:     2.0,
		Increment:      time.Second,
		MaxRetries:     3,
		RatePolicy:     rowtypes.RateFixedWait,
		RateLimitDelay: 200 * time.Millisecond,
		WindowSize:     time.Second,
		MaxRequests:    10,
		BatchSize:      500,
	}
}

// New creates a Client from functional options. WithBaseURL and
// WithAuthToken are required.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("base URL is required")
	}
	if cfg.AuthToken == "" {
		return nil, errors.NewValidationError("auth token is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	controller := control.NewController(
		control.NewRetryStrategy(string(cfg.RetryPolicy),
			cfg.InitialDelay, cfg.Multiplier, cfg.Increment,
			cfg.MaxRetries, cfg.MaxWaitTime),
		control.NewRateLimitStrategy(string(cfg.RatePolicy),
			cfg.RateLimitDelay, cfg.WindowSize, cfg.MaxRequests, nil),
		nil, logger)

	// A caller-supplied HTTP client is used as-is; otherwise the configured
	// timeout shapes the default one.
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	api := gridapi.NewClient(cfg.BaseURL, gridapi.StaticToken(cfg.AuthToken),
		controller, httpClient, logger)

	return &Client{
		config: cfg,
		engine: engine.New(api, cfg.BatchSize, logger),
		logger: logger,
	}, nil
}

// newWithAPI creates a Client over an existing API implementation. Retry and
// rate limiting are assumed to live inside the implementation; only the
// batch size and logger options take effect. Used by tests.
func newWithAPI(api gridapi.API, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: cfg,
		engine: engine.New(api, cfg.BatchSize, logger),
		logger: logger,
	}
}
