// Package person implements the record operations on persons and their
// addresses. Every operation runs inside exactly one unit of work.
package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
)

var tracer = otel.Tracer("person-registry/application")

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Option func(*options)

type options struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	defaultLimit int
	maxLimit     int
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPageLimits overrides the limit used when a listing omits one and the
// largest limit a listing may ask for.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(o *options) {
		if defaultLimit > 0 {
			o.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			o.maxLimit = maxLimit
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:       slog.Default(),
		defaultLimit: DefaultPageLimit,
		maxLimit:     MaxPageLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultLimit > o.maxLimit {
		o.defaultLimit = o.maxLimit
	}
	return o
}

// page turns caller-supplied offset and limit into a store page. A zero
// limit selects the default.
func (o options) page(offset, limit int) (domain.Page, error) {
	var violations []domain.Violation
	if offset < 0 {
		violations = append(violations, domain.Violation{Field: "offset", Message: "must not be negative"})
	}
	switch {
	case limit < 0:
		violations = append(violations, domain.Violation{Field: "limit", Message: "must not be negative"})
	case limit > o.maxLimit:
		violations = append(violations, domain.Violation{Field: "limit", Message: fmt.Sprintf("must be at most %d", o.maxLimit)})
	case limit == 0:
		limit = o.defaultLimit
	}
	if len(violations) > 0 {
		return domain.Page{}, &domain.ValidationError{Violations: violations}
	}
	return domain.Page{Offset: offset, Limit: limit}, nil
}

// translate maps store and domain errors onto this package's sentinels.
// Validation and context errors pass through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrInvalid),
		errors.Is(err, ErrPersonNotFound),
		errors.Is(err, ErrAddressNotFound),
		errors.Is(err, ErrPersonHasAddresses),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrStoreFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, domain.ErrPersonNotFound):
		return ErrPersonNotFound
	case errors.Is(err, domain.ErrAddressNotFound):
		return ErrAddressNotFound
	case errors.Is(err, domain.ErrPersonReferenced):
		return ErrPersonHasAddresses
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		return "invalid"
	case errors.Is(err, ErrPersonNotFound), errors.Is(err, ErrAddressNotFound):
		return "not_found"
	case errors.Is(err, ErrPersonHasAddresses):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "aborted"
	default:
		return "store_failure"
	}
}

// fail records a failed operation on the span, the failure counter and the
// log, then returns err.
func (o options) fail(ctx context.Context, span trace.Span, kind, op string, err error, attrs ...any) error {
	reason := reasonOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	o.metrics.IncrementFailure(kind, op, reason)

	level := slog.LevelWarn
	if reason == "store_failure" || reason == "unavailable" {
		level = slog.LevelError
	}
	attrs = append(attrs, "op", op, "reason", reason, "error", err)
	o.logger.Log(ctx, level, kind+" operation failed", attrs...)
	return err
}
