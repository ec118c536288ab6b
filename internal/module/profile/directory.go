package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Directory errors.
var (
	ErrDirectoryUnavailable = errors.New("profile directory unavailable")
	ErrDirectoryNotFound    = errors.New("profile not in directory")
)

// DirectoryConfig holds external profile directory client configuration.
type DirectoryConfig struct {
	BaseURL          string
	RequestTimeout   time.Duration
	FailureThreshold uint32
	CircuitTimeout   time.Duration
}

// DirectoryClient fetches profiles from the external identity provider's
// directory. Calls go through a circuit breaker so a broken directory does
// not stall request handling.
type DirectoryClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Profile]
}

// NewDirectoryClient creates a new directory client.
func NewDirectoryClient(cfg *DirectoryConfig) *DirectoryClient {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.CircuitTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "profile-directory",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A definitive "no such profile" answer is not a directory fault and
		// must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDirectoryNotFound)
		},
	}

	return &DirectoryClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: requestTimeout},
		breaker: gobreaker.NewCircuitBreaker[*Profile](settings),
	}
}

// directoryProfile is the directory's wire representation.
type directoryProfile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	Skills      []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"skills"`
}

// Fetch looks up a profile in the external directory.
func (d *DirectoryClient) Fetch(ctx context.Context, id uuid.UUID) (*Profile, error) {
	result, err := d.breaker.Execute(func() (*Profile, error) {
		return d.fetch(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
		return nil, err
	}
	return result, nil
}

func (d *DirectoryClient) fetch(ctx context.Context, id uuid.UUID) (*Profile, error) {
	url := fmt.Sprintf("%s/profiles/%s", d.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// A missing profile is a definitive answer, not a directory fault.
		return nil, ErrDirectoryNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrDirectoryUnavailable, resp.StatusCode)
	}

	var wire directoryProfile
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}

	p := &Profile{
		ID:          wire.ID,
		DisplayName: wire.DisplayName,
		Bio:         wire.Bio,
	}
	for i, s := range wire.Skills {
		level := SkillLevel(s.Level)
		if !level.Valid() {
			level = LevelBeginner
		}
		p.Skills = append(p.Skills, Skill{
			ProfileID: wire.ID,
			Position:  i,
			Name:      s.Name,
			Level:     level,
		})
	}
	return p, nil
}
