package logger

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// SampledLogger throttles repetitive log output. Sustained decode failures
// during playback can emit once per frame; sampling keeps the log readable
// while still counting every suppressed message.
type SampledLogger struct {
	inner      Logger
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewSampledLogger wraps a logger so at most perSecond messages (with the
// given burst) pass through per second.
func NewSampledLogger(inner Logger, perSecond float64, burst int) *SampledLogger {
	return &SampledLogger{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// allow reports whether the next message may be logged, attaching the count
// of messages dropped since the last one that passed.
func (s *SampledLogger) allow() (Logger, bool) {
	if !s.limiter.Allow() {
		s.suppressed.Add(1)
		return nil, false
	}
	dropped := s.suppressed.Swap(0)
	if dropped > 0 {
		return s.inner.WithField("suppressed", dropped), true
	}
	return s.inner, true
}

func (s *SampledLogger) Warn(args ...interface{}) {
	if l, ok := s.allow(); ok {
		l.Warn(args...)
	}
}

func (s *SampledLogger) Error(args ...interface{}) {
	if l, ok := s.allow(); ok {
		l.Error(args...)
	}
}

func (s *SampledLogger) WithError(err error) Logger {
	if l, ok := s.allow(); ok {
		return l.WithError(err)
	}
	return NewNullLogger()
}

// Suppressed returns the number of messages dropped since the last emitted one.
func (s *SampledLogger) Suppressed() int64 {
	return s.suppressed.Load()
}
