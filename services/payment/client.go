package paymentsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/billing"
)

// Client talks to the payment gateway's preference endpoint. One attempt per
// call; the caller decides what a failure means.
type Client struct {
	url    string
	token  string
	client *http.Client
}

var _ billing.PreferenceCreator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		url:    conf.Payment.PreferenceURL,
		token:  conf.Payment.AccessToken,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) CreatePreference(ctx context.Context, pref billing.PreferenceRequest) (billing.CheckoutPreference, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return billing.CheckoutPreference{}, errors.Wrap(err, "encoding preference request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return billing.CheckoutPreference{}, errors.Wrap(err, "building preference request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return billing.CheckoutPreference{}, errors.Wrap(err, "calling payment gateway")
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return billing.CheckoutPreference{}, errors.Errorf("payment gateway returned status %d", res.StatusCode)
	}

	var out billing.CheckoutPreference
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return billing.CheckoutPreference{}, errors.Wrap(err, "decoding preference response")
	}
	return out, nil
}
