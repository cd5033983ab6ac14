package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-platform/pkg/common/config"
	apperr "blog-platform/pkg/common/errors"
)

func fixed(score float64, err error) Classifier {
	return ClassifierFunc(func(context.Context, string) (float64, error) {
		return score, err
	})
}

func TestGateCheckPost(t *testing.T) {
	ctx := context.Background()

	t.Run("below threshold passes", func(t *testing.T) {
		g := NewGate(fixed(0.2, nil), 0.5)
		assert.NoError(t, g.CheckPost(ctx, "hello", "world"))
	})

	t.Run("equal to threshold passes", func(t *testing.T) {
		g := NewGate(fixed(0.5, nil), 0.5)
		assert.NoError(t, g.CheckPost(ctx, "hello", "world"))
	})

	t.Run("above threshold rejects with score", func(t *testing.T) {
		g := NewGate(fixed(0.91, nil), 0.5)
		err := g.CheckPost(ctx, "bad", "words")
		require.ErrorIs(t, err, apperr.ErrModerationRejected)

		var me *apperr.ModerationError
		require.True(t, errors.As(err, &me))
		assert.InDelta(t, 0.91, me.Score, 1e-9)
	})

	t.Run("classifier error fails closed", func(t *testing.T) {
		g := NewGate(fixed(0, errors.New("boom")), 0.5)
		assert.ErrorIs(t, g.CheckPost(ctx, "a", "b"), apperr.ErrModerationUnavailable)
	})

	t.Run("classifier error with fail open passes", func(t *testing.T) {
		g := NewGate(fixed(0, errors.New("boom")), 0.5, WithFailOpen(true))
		assert.NoError(t, g.CheckPost(ctx, "a", "b"))
	})

	t.Run("out of range score is a failure", func(t *testing.T) {
		g := NewGate(fixed(1.7, nil), 0.5)
		assert.ErrorIs(t, g.CheckPost(ctx, "a", "b"), apperr.ErrModerationUnavailable)
	})

	t.Run("slow classifier times out", func(t *testing.T) {
		slow := ClassifierFunc(func(ctx context.Context, _ string) (float64, error) {
			select {
			case <-time.After(time.Second):
				return 0, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
		g := NewGate(slow, 0.5, WithTimeout(20*time.Millisecond))
		assert.ErrorIs(t, g.CheckPost(ctx, "a", "b"), apperr.ErrModerationUnavailable)
	})

	t.Run("panicking classifier is a failure", func(t *testing.T) {
		g := NewGate(ClassifierFunc(func(context.Context, string) (float64, error) {
			panic("model crashed")
		}), 0.5)
		assert.ErrorIs(t, g.CheckPost(ctx, "a", "b"), apperr.ErrModerationUnavailable)
	})

	t.Run("header and body are both scored", func(t *testing.T) {
		var seen string
		g := NewGate(ClassifierFunc(func(_ context.Context, text string) (float64, error) {
			seen = text
			return 0, nil
		}), 0.5)
		require.NoError(t, g.CheckPost(ctx, "Title", "Body text"))
		assert.Contains(t, seen, "Title")
		assert.Contains(t, seen, "Body text")
	})
}

func TestLexiconClassifier(t *testing.T) {
	c := NewLexiconClassifier(nil)
	ctx := context.Background()

	clean, err := c.Score(ctx, "A calm post about gardening")
	require.NoError(t, err)
	assert.Equal(t, 0.0, clean)

	one, err := c.Score(ctx, "You are an IDIOT.")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, one, 1e-9)

	two, err := c.Score(ctx, "idiot, shut up")
	require.NoError(t, err)
	assert.InDelta(t, 0.84, two, 1e-9)

	custom := NewLexiconClassifier([]string{"spam"})
	s, err := custom.Score(ctx, "idiot")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestCachedClassifier(t *testing.T) {
	var calls int32
	next := ClassifierFunc(func(_ context.Context, text string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		if text == "fail" {
			return 0, errors.New("down")
		}
		return 0.3, nil
	})
	c := NewCachedClassifier(next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := c.Score(ctx, "same text")
		require.NoError(t, err)
		assert.Equal(t, 0.3, s)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	_, err := c.Score(ctx, "fail")
	assert.Error(t, err)
	_, err = c.Score(ctx, "fail")
	assert.Error(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRemoteClassifier(t *testing.T) {
	t.Run("nested response with neutral label", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[[{"label":"non-toxic","score":0.2},{"label":"insult","score":0.7},{"label":"dangerous","score":0.5}]]`))
		}))
		defer srv.Close()

		c, err := NewRemoteClassifier(srv.URL, "secret", time.Second)
		require.NoError(t, err)
		score, err := c.Score(context.Background(), "text")
		require.NoError(t, err)
		assert.InDelta(t, 0.9, score, 1e-9)
	})

	t.Run("flat response without neutral label", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"label":"toxic","score":0.12},{"label":"obscene","score":0.4}]`))
		}))
		defer srv.Close()

		c, err := NewRemoteClassifier(srv.URL, "", time.Second)
		require.NoError(t, err)
		score, err := c.Score(context.Background(), "text")
		require.NoError(t, err)
		assert.InDelta(t, 0.4, score, 1e-9)
	})

	t.Run("non 200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c, err := NewRemoteClassifier(srv.URL, "", time.Second)
		require.NoError(t, err)
		_, err = c.Score(context.Background(), "text")
		assert.Error(t, err)
	})

	t.Run("empty endpoint is rejected", func(t *testing.T) {
		_, err := NewRemoteClassifier("", "", time.Second)
		assert.Error(t, err)
	})
}

func TestNewGateFromConfig(t *testing.T) {
	g, err := NewGateFromConfig(config.ModerationConfig{
		Provider:  "lexicon",
		Threshold: 0.5,
		Timeout:   time.Second,
		CacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, g.CheckPost(context.Background(), "idiot", "stupid moron"), apperr.ErrModerationRejected)
	assert.NoError(t, g.Probe(context.Background()))

	_, err = NewGateFromConfig(config.ModerationConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
