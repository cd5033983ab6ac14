package moderation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedClassifier memoizes scores by text digest. Failures are not cached.
type CachedClassifier struct {
	next  Classifier
	store *cache.Cache
}

func NewCachedClassifier(next Classifier, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{
		next:  next,
		store: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedClassifier) Score(ctx context.Context, text string) (float64, error) {
	key := digest(text)
	if v, ok := c.store.Get(key); ok {
		return v.(float64), nil
	}

	score, err := c.next.Score(ctx, text)
	if err != nil {
		return 0, err
	}
	c.store.SetDefault(key, score)
	return score, nil
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
