// Package auth mints and verifies the signed credentials handed to
// participants. Tokens follow the media server's HS256 claim layout: the API
// key is the issuer, the participant identity the subject, and room access
// is described by the "video" grant.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// VideoGrant scopes a credential to one channel.
type VideoGrant struct {
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// JoinClaims is the claim set of a join or admin credential. Metadata is the
// participant metadata JSON, carried verbatim.
type JoinClaims struct {
	jwt.RegisteredClaims
	Name     string      `json:"name,omitempty"`
	Metadata string      `json:"metadata,omitempty"`
	Video    *VideoGrant `json:"video,omitempty"`
}

// Signer mints credentials with one API key/secret pair.
type Signer struct {
	apiKey   string
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewSigner fails with common.ErrServerMisconfigured when either half of the
// key pair is missing.
func NewSigner(apiKey, apiSecret string, validity time.Duration) (*Signer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: media server API key and secret are required", common.ErrServerMisconfigured)
	}
	return &Signer{apiKey: apiKey, secret: []byte(apiSecret), validity: validity, now: time.Now}, nil
}

// WithClock returns a copy of s that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

func (s *Signer) sign(claims JoinClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *Signer) registered(subject string) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Issuer:    s.apiKey,
		Subject:   subject,
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
	}
}

// JoinToken grants identity join, publish and subscribe on channel.
func (s *Signer) JoinToken(identity, name, channel, metadata string) (string, error) {
	return s.sign(JoinClaims{
		RegisteredClaims: s.registered(identity),
		Name:             name,
		Metadata:         metadata,
		Video: &VideoGrant{
			RoomJoin:     true,
			Room:         channel,
			CanPublish:   true,
			CanSubscribe: true,
		},
	})
}

// AdminToken authorizes server-side RoomService calls for channel.
func (s *Signer) AdminToken(channel string) (string, error) {
	return s.sign(JoinClaims{
		RegisteredClaims: s.registered(""),
		Video:            &VideoGrant{RoomAdmin: true, Room: channel},
	})
}

// Parse verifies a credential issued by this signer. Expired tokens yield
// common.ErrTokenExpired; anything else that fails verification yields
// common.ErrInvalidToken.
func (s *Signer) Parse(tokenString string) (*JoinClaims, error) {
	claims := &JoinClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.apiKey),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
