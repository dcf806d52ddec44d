// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// Service runs builds one at a time.
//
// Thread Safety: Service is safe for concurrent use. Concurrent Build calls are
// serialized by a mutex owned by the Service; a second build starts only after
// the first has returned.
type Service struct {
	mu       sync.Mutex
	builders map[builder.Kind]builder.Builder

	log        logger.Logger
	now        func() time.Time
	metrics    *Metrics
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	builderOpts []builder.Option
	custom      []builder.Builder
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger for build start, completion and failure entries.
// The logger is also handed to the default builders for their warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRegisterer registers the service metrics with r instead of a private
// registry. When r is also a [prometheus.Gatherer], as a [prometheus.Registry]
// is, [Service.WriteMetrics] reads from it.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(s *Service) {
		if r == nil {
			return
		}
		s.registerer = r
		s.gatherer, _ = r.(prometheus.Gatherer)
	}
}

// WithBuilders replaces the default builder of each given builder's kind.
func WithBuilders(bs ...builder.Builder) Option {
	return func(s *Service) { s.custom = append(s.custom, bs...) }
}

// WithBuilderOptions configures the default builders.
func WithBuilderOptions(opts ...builder.Option) Option {
	return func(s *Service) { s.builderOpts = append(s.builderOpts, opts...) }
}

// WithClock sets the time source of the Config mode normalization.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a service with one builder per kind and registers its metrics.
func New(opts ...Option) (*Service, error) {
	reg := prometheus.NewRegistry()
	s := &Service{
		log:        logger.NewJSONLogger(io.Discard, true),
		now:        time.Now,
		metrics:    newMetrics(),
		registerer: reg,
		gatherer:   reg,
	}
	for _, opt := range opts {
		opt(s)
	}

	defaults := append([]builder.Option{builder.WithLogger(s.log), builder.WithClock(s.now)}, s.builderOpts...)
	s.builders = make(map[builder.Kind]builder.Builder)
	for _, b := range builder.All(defaults...) {
		s.builders[b.Kind()] = b
	}
	for _, b := range s.custom {
		s.builders[b.Kind()] = b
	}

	if err := s.metrics.register(s.registerer); err != nil {
		return nil, err
	}
	return s, nil
}

// Metrics returns the collectors updated by the service.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Build runs the builder for cfg.Mode and returns the populated configuration.
//
// The Config mode builds nothing: it returns the normalized and validated
// configuration, which shows every default a build would apply.
//
// The service lock is held for the whole build and released on every return
// path. Failures are [*builder.Error] values.
func (s *Service) Build(ctx context.Context, cfg *model.Config, observe builder.Observer) (*model.Config, error) {
	if cfg == nil {
		return nil, builder.InvalidArgument("mode", "a configuration is required")
	}
	if cfg.Mode == model.ModeConfig {
		out := cfg.Normalize(s.now())
		if err := out.Validate(); err != nil {
			return nil, invalid("validate", err)
		}
		return out, nil
	}

	kind, ok := builder.KindForMode(cfg.Mode)
	if !ok {
		return nil, builder.InvalidArgument("mode", "no builder handles mode %s", cfg.Mode)
	}
	b, ok := s.builders[kind]
	if !ok {
		return nil, builder.InvalidArgument("mode", "no %s builder is configured", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.BuildsInFlight.Inc()
	defer s.metrics.BuildsInFlight.Dec()

	var id uuid.UUID
	track := func(e builder.Event) {
		if id == uuid.Nil {
			id = e.BuildID
			s.log.Printf("build %s: %s %s started", id, kind, cfg.Mode)
		}
		if observe != nil {
			observe(e)
		}
	}

	start := time.Now()
	out, err := b.Build(ctx, cfg, track)
	elapsed := time.Since(start)
	s.metrics.record(kind, err, elapsed)

	if err != nil {
		logger.Errorf(s.log, "build %s: %s failed after %s: %v", id, kind, elapsed, err)
		return nil, err
	}
	s.log.Printf("build %s: %s done in %s", id, kind, elapsed)
	return out, nil
}

// BuildJSON decodes a JSON configuration whose property names follow policy,
// checks it against [model.Schema], builds it and encodes the result with the
// same policy.
func (s *Service) BuildJSON(ctx context.Context, data []byte, policy model.NamingPolicy, observe builder.Observer) ([]byte, error) {
	camel, err := model.Canonicalize(data, policy)
	if err != nil {
		return nil, builder.InvalidArgument("config", "%w", err)
	}
	if err := model.ValidateJSON(camel); err != nil {
		return nil, invalid("schema", err)
	}

	cfg := &model.Config{}
	if err := model.Unmarshal(camel, cfg, model.CamelCase); err != nil {
		return nil, builder.InvalidArgument("config", "%w", err)
	}

	out, err := s.Build(ctx, cfg, observe)
	if err != nil {
		return nil, err
	}
	encoded, err := model.Marshal(out, policy)
	if err != nil {
		return nil, builder.Unspecified("encode config", err)
	}
	return encoded, nil
}

// invalid converts aggregated field errors. A single problem keeps its field.
func invalid(op string, err error) *builder.Error {
	if fields := model.FieldErrors(err); len(fields) == 1 {
		return builder.InvalidArgument(fields[0].Field, "%s", fields[0].Message)
	}
	return &builder.Error{Kind: builder.InvalidArgumentError, Op: op, Err: err}
}
