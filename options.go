package cache

import (
	"github.com/krisalay/recency-cache/types"
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

type options struct {
	clock       clock.Clock
	logger      *zap.Logger
	metrics     types.Metrics
	fullRebuild bool
}

// Option configures a Cache at construction time.
type Option func(*options)

func defaultOptions() options {
	return options{
		clock:   clock.NewDefaultClock(),
		logger:  zap.NewNop(),
		metrics: types.NoopMetrics{},
	}
}

// WithClock sets the source of record timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for eviction and rebuild events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics forwards hit, miss and eviction events to m.
func WithMetrics(m types.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

/*
WithFullRebuild makes every lookup hit discard the recency index and rebuild
it from an in-order walk of the ordered index, instead of re-sifting the
touched record in place.

Both modes evict in the same order, including among records whose
timestamps tie: the rebuilt index keeps every record's place in insertion
and access order. Rebuilding costs O(n log n) per hit and
exists for comparison runs.
*/
func WithFullRebuild() Option {
	return func(o *options) {
		o.fullRebuild = true
	}
}
