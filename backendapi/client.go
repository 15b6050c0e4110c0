package backendapi

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const defaultRequestTimeout = 30 * time.Second

// Client talks to the Kenesis backend REST API. Every response follows the
// `{ success, message?, data?, errors?[], retryAfter? }` envelope; Data is
// decoded into the caller's type only when success is true.
type Client struct {
	http *resty.Client
}

type ClientOption func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultRequestTimeout).
		SetHeader("Content-Type", "application/json")

	c := &Client{http: httpClient}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// do runs one request and unwraps the envelope into out (out may be nil for
// calls whose data payload is ignored). Backend rejections come back as
// classified errors, never as decoded payloads.
func (c *Client) do(ctx context.Context, method, path string, accessToken string, body any, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.New().String())
	if accessToken != "" {
		req.SetAuthToken(accessToken)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.do] marshal body")
		}
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}

	raw := resp.Body()
	parsed := gjson.ParseBytes(raw)
	if !parsed.Get("success").Bool() || resp.IsError() {
		message := parsed.Get("message").String()
		var reasons []string
		for _, r := range parsed.Get("errors").Array() {
			if r.Get("message").Exists() {
				reasons = append(reasons, r.Get("message").String())
			} else {
				reasons = append(reasons, r.String())
			}
		}
		retryAfter := int(parsed.Get("retryAfter").Int())
		err := classify(resp.StatusCode(), message, reasons, retryAfter)
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode()).
			Err(err).
			Msg("backend rejected request")
		return err
	}

	if out == nil {
		return nil
	}
	data := parsed.Get("data")
	if !data.Exists() {
		return errors.Errorf("[Client.do] %s %s: success response without data", method, path)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return errors.Wrapf(err, "[Client.do] %s %s: decode data", method, path)
	}
	return nil
}
