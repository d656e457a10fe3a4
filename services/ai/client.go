package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/planning"
)

// Client calls the external activity generator. A single attempt per call;
// the generator is slow so the timeout is generous.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

var _ planning.Generator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		url:    conf.AI.GenerateURL,
		apiKey: conf.AI.APIKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) GenerateActivities(ctx context.Context, sr planning.SubstituteRequest) ([]planning.GeneratedActivity, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, errors.Wrap(err, "encoding generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building generation request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling activity generator")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("activity generator returned status %d", res.StatusCode)
	}

	var out struct {
		Activities []planning.GeneratedActivity `json:"activities"`
	}
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decoding generation response")
	}
	return out.Activities, nil
}
