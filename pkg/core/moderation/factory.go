package moderation

import (
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"blog-platform/pkg/common/config"
)

// NewGateFromConfig builds the classifier chain described by cfg.
func NewGateFromConfig(cfg config.ModerationConfig) (*Gate, error) {
	var classifier Classifier
	switch cfg.Provider {
	case "http":
		remote, err := NewRemoteClassifier(cfg.Endpoint, cfg.APIToken, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		classifier = remote
	case "lexicon", "":
		classifier = NewLexiconClassifier(cfg.Lexicon)
	default:
		return nil, fmt.Errorf("unknown moderation provider %q", cfg.Provider)
	}

	if cfg.CacheTTL > 0 {
		classifier = NewCachedClassifier(classifier, cfg.CacheTTL)
	}

	hlog.Infof("moderation provider=%s threshold=%.2f failOpen=%t", cfg.Provider, cfg.Threshold, cfg.FailOpen)
	return NewGate(classifier, cfg.Threshold, WithTimeout(cfg.Timeout), WithFailOpen(cfg.FailOpen)), nil
}
