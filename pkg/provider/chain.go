package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
)

var chainLog = logger.WithName("provider-chain")

// ErrAllProvidersFailed is the only failure the chain ever returns to a
// caller. Its message is deliberately generic; raw provider errors stay in
// the logs.
var ErrAllProvidersFailed = errors.New("no match found for this audio")

// Chain tries providers in a fixed priority order and stops at the first
// success. Providers missing credentials or not applicable to the request
// are skipped without being attempted.
type Chain struct {
	providers []Provider
}

// NewChain builds a chain over an explicit provider list, in order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// FromConfig builds the chain named by the configured priority order.
func FromConfig(cfg config.ProvidersConfig) (*Chain, error) {
	byName := map[string]Provider{
		"youtube":  NewYouTubeMeta(cfg.YouTube),
		"audd":     NewAudD(cfg.AudD),
		"acrcloud": NewACRCloud(cfg.ACRCloud),
	}
	var providers []Provider
	for _, name := range cfg.Order {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider: %q", name)
		}
		providers = append(providers, p)
	}
	for _, p := range providers {
		chainLog.WithField("provider", p.Name()).
			WithField("configured", p.Configured()).
			Debug("Registered provider")
	}
	return NewChain(providers...), nil
}

// Identify runs the fallback loop. First success wins even if a later
// provider might be more accurate; latency and quota cost take priority.
func (c *Chain) Identify(ctx context.Context, req *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error) {
	attempted := 0
	for _, p := range c.providers {
		entry := chainLog.WithField("provider", p.Name())

		if !p.Configured() {
			entry.Debug("Skipping unconfigured provider")
			continue
		}
		if !p.Supports(req) {
			entry.Debug("Provider does not apply to this request")
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("identification cancelled: %w", err)
		}

		attempted++
		match, err := c.identifyOne(ctx, p, req, asset)
		if err == nil {
			entry.WithField("title", match.Title).Info("Provider matched")
			return match, nil
		}

		switch {
		case errors.Is(err, ErrNoMatch):
			entry.Info("Provider found no match, advancing")
		case errors.Is(err, ErrUnavailable):
			entry.WithError(err).Warn("Provider unavailable, advancing")
		default:
			entry.WithError(err).Warn("Provider failed, advancing")
		}
	}

	if attempted == 0 {
		chainLog.Warn("No provider was applicable or configured")
	}
	return nil, ErrAllProvidersFailed
}

// identifyOne isolates a single provider call. A panicking adapter is
// converted into an error so one misbehaving provider cannot take down the
// request.
func (c *Chain) identifyOne(ctx context.Context, p Provider, req *models.Request, asset *models.AudioAsset) (match *models.TrackMatch, err error) {
	defer func() {
		if r := recover(); r != nil {
			chainLog.WithField("provider", p.Name()).
				WithField("panic", r).
				Error("Provider panicked")
			match, err = nil, fmt.Errorf("%w: provider panicked: %v", ErrUnavailable, r)
		}
	}()
	return p.Identify(ctx, req, asset)
}
