package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// HTTPConfig configures the HTTP directory client.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultHTTPConfig returns defaults for baseURL.
func DefaultHTTPConfig(baseURL string) HTTPConfig {
	return HTTPConfig{
		BaseURL:          baseURL,
		Timeout:          2 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

type participantResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// HTTPDirectory fetches names from GET {base}/participants/{id}, guarded by
// a circuit breaker.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewHTTPDirectory creates a new HTTP directory client.
func NewHTTPDirectory(cfg HTTPConfig, logger *slog.Logger) *HTTPDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "participant-directory",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// Unknown participants do not count as failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownParticipant)
		},
	}

	return &HTTPDirectory{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		logger:  logger,
	}
}

// DisplayName fetches the participant's name.
func (d *HTTPDirectory) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	name, err := d.breaker.Execute(func() (string, error) {
		return d.fetch(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("participant directory unavailable: %w", err)
	}
	return name, err
}

// State reports the breaker state.
func (d *HTTPDirectory) State() string {
	return d.breaker.State().String()
}

func (d *HTTPDirectory) fetch(ctx context.Context, id uuid.UUID) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/participants/"+id.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch participant %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrUnknownParticipant
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetch participant %s: unexpected status %d", id, resp.StatusCode)
	}

	var body participantResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode participant %s: %w", id, err)
	}
	if body.DisplayName == "" {
		return "", ErrUnknownParticipant
	}
	return body.DisplayName, nil
}
