// Package moderation scores post content for toxicity before it is stored.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "blog-platform/pkg/common/errors"
)

// Classifier returns a toxicity score in [0,1] for UTF-8 text; higher is more toxic.
// Implementations must be deterministic for a fixed model snapshot.
type Classifier interface {
	Score(ctx context.Context, text string) (float64, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (float64, error)

func (f ClassifierFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Gate applies a Classifier to proposed posts.
type Gate struct {
	classifier Classifier
	threshold  float64
	timeout    time.Duration
	failOpen   bool
}

type GateOption func(*Gate)

// WithTimeout bounds each classifier call. Zero disables the bound.
func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) { g.timeout = d }
}

// WithFailOpen lets content through when the classifier fails.
func WithFailOpen(failOpen bool) GateOption {
	return func(g *Gate) { g.failOpen = failOpen }
}

func NewGate(classifier Classifier, threshold float64, opts ...GateOption) *Gate {
	g := &Gate{
		classifier: classifier,
		threshold:  threshold,
		timeout:    3 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) FailOpen() bool { return g.failOpen }

// PostText is the text scored for a post.
func PostText(header, body string) string {
	return header + "\n" + body
}

// CheckPost scores a post. It returns nil when the post may be stored,
// an *apperr.ModerationError when the score exceeds the threshold, and
// ErrModerationUnavailable when the classifier failed and the gate is fail-closed.
func (g *Gate) CheckPost(ctx context.Context, header, body string) error {
	score, err := g.score(ctx, PostText(header, body))
	if err != nil {
		if g.failOpen {
			hlog.CtxWarnf(ctx, "moderation classifier failed, accepting content (fail-open): %v", err)
			return nil
		}
		hlog.CtxErrorf(ctx, "moderation classifier failed: %v", err)
		return fmt.Errorf("%w: %v", apperr.ErrModerationUnavailable, err)
	}

	if score > g.threshold {
		hlog.CtxInfof(ctx, "moderation rejected content score=%.4f threshold=%.4f", score, g.threshold)
		return &apperr.ModerationError{Score: score, Threshold: g.threshold}
	}
	return nil
}

// Probe runs the classifier on a fixed harmless text, for health checks.
func (g *Gate) Probe(ctx context.Context) error {
	_, err := g.score(ctx, "health check")
	return err
}

type scoreResult struct {
	score float64
	err   error
}

func (g *Gate) score(ctx context.Context, text string) (float64, error) {
	if g.classifier == nil {
		return 0, errors.New("no classifier configured")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan scoreResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- scoreResult{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		s, err := g.classifier.Score(ctx, text)
		done <- scoreResult{score: s, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("classifier: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return 0, r.err
		}
		if math.IsNaN(r.score) || r.score < 0 || r.score > 1 {
			return 0, fmt.Errorf("classifier returned score %v outside [0,1]", r.score)
		}
		return r.score, nil
	}
}
