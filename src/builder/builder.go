// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"context"
	"io"
	"time"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
	"github.com/google/uuid"
)

// Builder produces artifacts for the modes of one [Kind].
//
// Build never modifies cfg. It works on a normalized clone and returns that clone
// with every output slot populated, or nil and an [*Error].
type Builder interface {
	Kind() Kind
	Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error)
}

// Option configures a builder.
type Option func(*options)

type options struct {
	log      logger.Logger
	now      func() time.Time
	engine   *crypt.Engine
	cipher   crypt.Cipher
	cache    []stream.CacheOption
	maxInput int64
}

// DefaultMaxInput is the largest slot payload read by default.
const DefaultMaxInput = 64 << 20

func newOptions(opts []Option) options {
	o := options{
		log:      logger.NewJSONLogger(io.Discard, true),
		now:      time.Now,
		engine:   crypt.Default,
		cipher:   crypt.AES256CBC,
		maxInput: DefaultMaxInput,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger that receives build warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the time source used for defaults and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithEngine sets the password envelope engine used for protected slots.
func WithEngine(e *crypt.Engine) Option {
	return func(o *options) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithCipher sets the content cipher used when encrypting output slots.
func WithCipher(c crypt.Cipher) Option {
	return func(o *options) { o.cipher = c }
}

// WithCacheOptions configures the caches that hold decrypted and encrypted payloads.
func WithCacheOptions(opts ...stream.CacheOption) Option {
	return func(o *options) { o.cache = append(o.cache, opts...) }
}

// WithMaxInput limits the size of each input slot payload. Non-positive values are ignored.
func WithMaxInput(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInput = n
		}
	}
}

// All returns one builder of every kind sharing opts.
func All(opts ...Option) []Builder {
	return []Builder{
		NewKeyPairBuilder(opts...),
		NewCSRBuilder(opts...),
		NewCertBuilder(opts...),
		NewCRLBuilder(opts...),
		NewTransformBuilder(opts...),
	}
}

// build is the state of one Build call.
type build struct {
	ctx     context.Context
	id      uuid.UUID
	kind    Kind
	opts    *options
	observe Observer
	cfg     *model.Config
	pending []*output
}

// run drives the state machine around body. body loads or generates keys, signs,
// and queues outputs with emit; run encodes and commits them.
func (o *options) run(ctx context.Context, kind Kind, cfg *model.Config, observe Observer, body func(b *build) error) (*model.Config, error) {
	b := &build{ctx: ctx, id: uuid.New(), kind: kind, opts: o, observe: observe}
	if err := b.execute(cfg, body); err != nil {
		b.step(StepFailed)
		return nil, classify(string(kind), err)
	}
	b.step(StepDone)
	return b.cfg, nil
}

func (b *build) execute(cfg *model.Config, body func(b *build) error) error {
	b.step(StepValidating)
	if cfg == nil {
		return InvalidArgument("mode", "a configuration is required")
	}
	if !b.kind.Accepts(cfg.Mode) {
		return InvalidArgument("mode", "the %s builder cannot build mode %s", b.kind, cfg.Mode)
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}

	b.cfg = cfg.Normalize(b.opts.now())
	if err := b.cfg.Validate(); err != nil {
		return invalidConfig(err)
	}

	if err := body(b); err != nil {
		return err
	}
	if err := b.ctx.Err(); err != nil {
		return err
	}

	b.step(StepEncoding)
	return b.commit()
}

func (b *build) step(s Step) {
	if b.observe == nil {
		return
	}
	b.observe(Event{BuildID: b.id, Kind: b.kind, Step: s, Time: b.opts.now().UTC()})
}

// invalidConfig converts aggregated validation errors. A single problem keeps its
// field on the returned error.
func invalidConfig(err error) *Error {
	if fields := model.FieldErrors(err); len(fields) == 1 {
		return InvalidArgument(fields[0].Field, "%s", fields[0].Message)
	}
	return &Error{Kind: InvalidArgumentError, Op: "validate", Err: err}
}
