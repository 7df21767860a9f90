package advisor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// Hard deadlines for one advisor call.
const (
	DayTimeout  = 30 * time.Second
	WeekTimeout = 45 * time.Second
)

// Request scopes one advisor call to a location and, optionally, a day.
type Request struct {
	Day      string
	Location string
	Schedule []studio.ScheduledClass
	Profiles *analyzer.Profiles
}

// Options tunes an Advisor.
type Options struct {
	// RequestsPerMinute caps local calls; zero means no local limit.
	RequestsPerMinute int
}

// Advisor wraps a Client with deadlines, a local rate limit, and reply
// parsing. A nil Client is valid and always reports API_UNAVAILABLE.
type Advisor struct {
	client      Client
	limiter     *rate.Limiter
	dayTimeout  time.Duration
	weekTimeout time.Duration
	log         *logrus.Entry
}

// New returns an Advisor around client.
func New(client Client, opts Options) *Advisor {
	return &Advisor{
		client:      client,
		limiter:     newLimiter(opts.RequestsPerMinute),
		dayTimeout:  DayTimeout,
		weekTimeout: WeekTimeout,
		log:         logger.WithComponent("advisor"),
	}
}

// newLimiter converts a per-minute budget into a token bucket with a burst
// of a tenth of the budget, at least one.
func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

// Enabled reports whether a client is configured.
func (a *Advisor) Enabled() bool {
	return a != nil && a.client != nil
}

// Timeout returns the deadline applied to a request for day ("" = full week).
func (a *Advisor) Timeout(day string) time.Duration {
	if day != "" {
		return a.dayTimeout
	}
	return a.weekTimeout
}

type completion struct {
	reply string
	err   error
}

// complete runs the client call but returns as soon as ctx ends, even when
// the client ignores ctx. A late reply is discarded.
func (a *Advisor) complete(ctx context.Context, user string) (string, error) {
	done := make(chan completion, 1)
	go func() {
		reply, err := a.client.Complete(ctx, systemPrompt, user)
		done <- completion{reply: reply, err: err}
	}()

	select {
	case c := <-done:
		if c.err == nil && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return c.reply, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Advise asks the provider for suggestions. Every failure is an *Error and
// comes with no suggestions.
func (a *Advisor) Advise(ctx context.Context, req Request) ([]suggest.Suggestion, error) {
	if !a.Enabled() {
		return nil, newError(CodeAPIUnavailable, "no advisor credential configured", nil)
	}
	if !a.limiter.Allow() {
		return nil, newError(CodeRateLimited, "local advisor rate limit reached", nil)
	}

	sc := BuildContext(req.Day, req.Location, req.Schedule, req.Profiles)
	user, err := userPrompt(sc)
	if err != nil {
		return nil, newError(CodeUnknown, "building prompt", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout(req.Day))
	defer cancel()

	log := a.log.WithFields(logrus.Fields{
		"location": req.Location,
		"day":      req.Day,
		"classes":  len(sc.Classes),
	})
	log.Debug("advisor request")

	start := time.Now()
	reply, err := a.complete(ctx, user)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = newError(CodeTimeout, "advisor request timed out", ctx.Err())
		}
		ae := classify(err)
		log.WithField("code", ae.Code).Warnf("advisor call failed: %v", err)
		return nil, ae
	}

	suggestions, err := parseReply(reply, req.Location, req.Schedule)
	if err != nil {
		ae := classify(err)
		log.WithField("code", ae.Code).Warn("advisor reply rejected")
		return nil, ae
	}

	log.WithField("suggestions", len(suggestions)).WithField("elapsed", time.Since(start).String()).Debug("advisor reply parsed")
	return suggestions, nil
}
