// Package api is the operator's client for the roomkeeper HTTP API and its
// gRPC health endpoint.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/netx"
)

const requestTimeout = 12 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API served at baseURL, e.g.
// "http://127.0.0.1:8080". A nil hc uses a client with a request timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, "", in, out); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*Room, error) {
	var room Room
	if err := c.do(ctx, http.MethodPost, "/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) GetRoom(ctx context.Context, id string) (*Room, error) {
	var room Room
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// Join asks for a join credential. Denials come back as *Error.
func (c *Client) Join(ctx context.Context, req JoinRequest) (*JoinResponse, error) {
	var res JoinResponse
	if err := c.do(ctx, http.MethodPost, "/join", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
