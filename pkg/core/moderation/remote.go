package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/goccy/go-json"
)

// RemoteClassifier calls a text-classification inference endpoint that answers
// with label/score pairs, e.g. [[{"label":"non-toxic","score":0.98}, ...]].
type RemoteClassifier struct {
	endpoint string
	token    string
	client   *client.Client
}

func NewRemoteClassifier(endpoint, token string, timeout time.Duration) (*RemoteClassifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("moderation endpoint is empty")
	}
	c, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create moderation client: %w", err)
	}
	return &RemoteClassifier{endpoint: endpoint, token: token, client: c}, nil
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *RemoteClassifier) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return 0, err
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.SetMethod(consts.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.SetBody(body)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return 0, fmt.Errorf("moderation request: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return 0, fmt.Errorf("moderation endpoint answered %d", resp.StatusCode())
	}

	labels, err := decodeLabels(resp.Body())
	if err != nil {
		return 0, err
	}
	return aggregate(labels)
}

// decodeLabels accepts both the nested and the flat response shape.
func decodeLabels(raw []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode moderation response: %w", err)
	}
	return flat, nil
}

func isNeutral(label string) bool {
	switch strings.ToLower(label) {
	case "non-toxic", "non_toxic", "neutral", "ok":
		return true
	}
	return false
}

// aggregate folds per-label probabilities into one toxicity score. With a
// neutral label the score is 1 - p(neutral)*(1 - p(dangerous)); otherwise the
// highest toxic label wins.
func aggregate(labels []labelScore) (float64, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("moderation response has no labels")
	}

	neutral, dangerous, maxToxic := -1.0, 0.0, 0.0
	for _, l := range labels {
		switch {
		case isNeutral(l.Label):
			neutral = l.Score
		case strings.EqualFold(l.Label, "dangerous"):
			dangerous = l.Score
		default:
			if l.Score > maxToxic {
				maxToxic = l.Score
			}
		}
	}

	if neutral >= 0 {
		return 1 - neutral*(1-dangerous), nil
	}
	if dangerous > maxToxic {
		return dangerous, nil
	}
	return maxToxic, nil
}
