// Package livekit is a minimal RoomService client for the media server. Only
// the calls needed to rewrite participant metadata are implemented; they go
// over the server's Twirp JSON transport.
package livekit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/netx"
)

const servicePath = "/twirp/livekit.RoomService/"

// TokenSource mints admin credentials scoped to one channel.
type TokenSource interface {
	AdminToken(channel string) (string, error)
}

// ParticipantInfo is the subset of the media server's participant record we
// read.
type ParticipantInfo struct {
	SID      string `json:"sid"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Metadata string `json:"metadata"`
}

type participantRequest struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

type updateParticipantRequest struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
	Metadata string `json:"metadata"`
}

// RoomService talks to one media server.
type RoomService struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// NewRoomService accepts the server URL in either its websocket (ws, wss) or
// HTTP form.
func NewRoomService(serverURL string, tokens TokenSource) *RoomService {
	return &RoomService{
		baseURL: HTTPURL(serverURL),
		tokens:  tokens,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// HTTPURL rewrites a ws:// or wss:// URL to http:// or https:// and drops a
// trailing slash.
func HTTPURL(u string) string {
	switch {
	case strings.HasPrefix(u, "wss://"):
		u = "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		u = "http://" + strings.TrimPrefix(u, "ws://")
	}
	return strings.TrimRight(u, "/")
}

func (s *RoomService) call(ctx context.Context, method, channel string, in, out any) error {
	token, err := s.tokens.AdminToken(channel)
	if err != nil {
		return fmt.Errorf("admin token: %w", err)
	}
	if err := netx.DoJSON(ctx, s.http, http.MethodPost, s.baseURL+servicePath+method, token, in, out); err != nil {
		return fmt.Errorf("room service %s: %w", method, err)
	}
	return nil
}

func (s *RoomService) GetParticipant(ctx context.Context, channel, identity string) (*ParticipantInfo, error) {
	var info ParticipantInfo
	err := s.call(ctx, "GetParticipant", channel, participantRequest{Room: channel, Identity: identity}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *RoomService) UpdateParticipantMetadata(ctx context.Context, channel, identity, metadata string) error {
	return s.call(ctx, "UpdateParticipant", channel,
		updateParticipantRequest{Room: channel, Identity: identity, Metadata: metadata}, nil)
}
