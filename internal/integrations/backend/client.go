// Package backend talks to the shipping backend that owns pickups and couriers.
package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) ListPickupRecords(ctx context.Context) ([]PickupRecord, error) {
	body, err := c.get(ctx, "/shipping/pickup", nil)
	if err != nil {
		return nil, err
	}
	return DecodePickups(body)
}

func (c *Client) ListCourierRecords(ctx context.Context) ([]CourierRecord, error) {
	body, err := c.get(ctx, "/user", url.Values{"type": {"couriers"}})
	if err != nil {
		return nil, err
	}
	return DecodeCouriers(body)
}

func (c *Client) FetchPickups(ctx context.Context) ([]models.Pickup, error) {
	rs, err := c.ListPickupRecords(ctx)
	if err != nil {
		return nil, err
	}
	return MapPickups(rs), nil
}

func (c *Client) FetchCouriers(ctx context.Context) ([]models.Courier, error) {
	rs, err := c.ListCourierRecords(ctx)
	if err != nil {
		return nil, err
	}
	return MapCouriers(rs), nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.Path = path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("backend %s: http %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
