// Package identify runs the acquisition-and-identification pipeline:
// canonicalize, select a platform profile, acquire audio, run the provider
// fallback chain, normalize the winning result.
//
// Every request is an independent unit of work; the only shared state is the
// immutable configuration captured at construction.
package identify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/acquire"
	"github.com/pastefind/pastefind/pkg/config"
	"github.com/pastefind/pastefind/pkg/logger"
	"github.com/pastefind/pastefind/pkg/normalize"
	"github.com/pastefind/pastefind/pkg/pathutil"
	"github.com/pastefind/pastefind/pkg/platform"
	"github.com/pastefind/pastefind/pkg/provider"
	"github.com/pastefind/pastefind/pkg/urlutil"
)

var log = logger.WithName("identify")

// Acquirer is the slice of acquire.Acquirer the pipeline needs; tests swap
// in a stub.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string, prof platform.Profile, scope *acquire.Scope) (*models.AudioAsset, error)
}

// Matcher is the provider chain contract the pipeline depends on.
type Matcher interface {
	Identify(ctx context.Context, req *models.Request, asset *models.AudioAsset) (*models.TrackMatch, error)
}

// Service is the identification pipeline.
type Service struct {
	acquireCfg config.AcquireConfig
	acquirer   Acquirer
	chain      Matcher
}

// NewService wires the pipeline from configuration.
func NewService(cfg *config.Config) (*Service, error) {
	chain, err := provider.FromConfig(cfg.Providers)
	if err != nil {
		return nil, err
	}

	acquireCfg := cfg.Acquire
	tempDir, err := pathutil.EnsureDir(acquireCfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("temp directory unusable: %w", err)
	}
	acquireCfg.TempDir = tempDir

	return &Service{
		acquireCfg: acquireCfg,
		acquirer:   acquire.NewAcquirer(acquireCfg),
		chain:      chain,
	}, nil
}

// NewServiceWith builds a service from explicit collaborators, for tests.
func NewServiceWith(cfg config.AcquireConfig, acquirer Acquirer, chain Matcher) *Service {
	return &Service{acquireCfg: cfg, acquirer: acquirer, chain: chain}
}

// Identify runs the whole pipeline for one request. The returned Response is
// always fully formed (success payload or error payload with empty
// placeholders); the error, when non-nil, carries the failure kind so the
// transport layer can pick a status code. The temp asset is removed on every
// exit path, including panics and cancellation.
func (s *Service) Identify(ctx context.Context, req *models.Request) (resp models.Response, outErr error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Pipeline panic recovered")
			failure := &Error{Kind: KindInternal, Msg: "pipeline panic"}
			resp, outErr = normalize.Failure(failure.UserMessage()), failure
		}
	}()

	if err := validate(req); err != nil {
		return normalize.Failure(err.UserMessage()), err
	}

	scope := acquire.NewScope(s.acquireCfg.TempDir)
	defer scope.Close()

	asset, err := s.obtainAsset(ctx, req, scope)
	if err != nil {
		return normalize.Failure(err.UserMessage()), err
	}

	match, chainErr := s.chain.Identify(ctx, req, asset)
	if chainErr != nil {
		failure := &Error{Kind: KindNoMatch, Msg: "all providers exhausted", Err: chainErr}
		if ctx.Err() != nil {
			failure = &Error{Kind: KindInternal, Msg: "request cancelled", Err: ctx.Err()}
		}
		return normalize.Failure(failure.UserMessage()), failure
	}

	return normalize.Success(match), nil
}

// obtainAsset produces the local audio asset: extraction for URL requests,
// direct persistence for uploads.
func (s *Service) obtainAsset(ctx context.Context, req *models.Request, scope *acquire.Scope) (*models.AudioAsset, *Error) {
	if req.HasURL() {
		canonical := urlutil.Canonicalize(req.SourceURL)
		req.SourceURL = canonical
		prof := platform.Select(canonical)
		log.WithField("platform", prof.Name).WithField("url", canonical).Info("Acquiring audio")

		asset, err := s.acquirer.Acquire(ctx, canonical, prof, scope)
		if err != nil {
			return nil, classifyAcquireError(err)
		}
		return asset, nil
	}

	asset, err := acquire.SaveUpload(req.Upload, scope)
	if err != nil {
		return nil, classifyAcquireError(err)
	}
	return asset, nil
}

func classifyAcquireError(err error) *Error {
	var acqErr *acquire.Error
	if errors.As(err, &acqErr) && acqErr.Kind == acquire.FailureInvalid {
		return &Error{Kind: KindInvalidInput, Msg: acqErr.Msg, Err: err}
	}
	return &Error{Kind: KindAcquisitionFailed, Msg: "acquisition failed", Err: err}
}

// validate rejects malformed requests before any I/O.
func validate(req *models.Request) *Error {
	hasURL := req.HasURL()
	hasUpload := req.Upload != nil
	if hasURL == hasUpload {
		return &Error{Kind: KindInvalidInput, Msg: "request must contain exactly one of url or file"}
	}
	if hasURL {
		u, err := url.Parse(req.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &Error{Kind: KindInvalidInput, Msg: "invalid url"}
		}
	}
	return nil
}
