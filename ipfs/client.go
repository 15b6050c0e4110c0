// Package ipfs provides a client for a Pinata-style IPFS pinning service.
package ipfs

import (
	"bytes"
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const defaultPinTimeout = 60 * time.Second

// PinResult is the pinning service's record of stored content.
type PinResult struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// URI returns the ipfs:// content address for the pinned hash.
func (r PinResult) URI() string {
	return "ipfs://" + r.IpfsHash
}

// Pinner is the pinning capability consumed by the NFT metadata pipeline.
type Pinner interface {
	PinFile(ctx context.Context, name string, blob []byte) (*PinResult, error)
	PinJSON(ctx context.Context, v any) (*PinResult, error)
}

var _ Pinner = (*Client)(nil)

// Client pins content over the service's authenticated HTTPS API.
type Client struct {
	http *resty.Client
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func NewClient(baseURL, jwt string, options ...ClientOption) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultPinTimeout).
		SetAuthToken(jwt)

	c := &Client{http: httpClient}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// PinFile uploads a binary blob as a multipart file and pins it.
func (c *Client) PinFile(ctx context.Context, name string, blob []byte) (*PinResult, error) {
	if len(blob) == 0 {
		return nil, errors.New("[Client.PinFile] empty blob")
	}
	var result PinResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(blob)).
		SetResult(&result).
		Post("/pinning/pinFileToIPFS")
	if err != nil {
		return nil, errors.Wrap(err, "[Client.PinFile]")
	}
	if err := pinError(resp); err != nil {
		return nil, errors.Wrap(err, "[Client.PinFile]")
	}
	return &result, nil
}

// PinJSON pins an arbitrary JSON document.
func (c *Client) PinJSON(ctx context.Context, v any) (*PinResult, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.PinJSON] marshal")
	}
	var result PinResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]json.RawMessage{"pinataContent": content}).
		SetResult(&result).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return nil, errors.Wrap(err, "[Client.PinJSON]")
	}
	if err := pinError(resp); err != nil {
		return nil, errors.Wrap(err, "[Client.PinJSON]")
	}
	return &result, nil
}

func pinError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	// Pinata error payloads vary between {"error": "..."} and
	// {"error": {"reason": ..., "details": ...}}
	body := gjson.ParseBytes(resp.Body())
	msg := body.Get("error.details").String()
	if msg == "" {
		msg = body.Get("error.reason").String()
	}
	if msg == "" {
		msg = body.Get("error").String()
	}
	if msg == "" {
		msg = resp.Status()
	}
	return errors.Errorf("pinning service: %s", msg)
}
