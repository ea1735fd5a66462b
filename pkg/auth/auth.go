// Package auth implements the challenge/signature handshake that turns a
// wallet into an authenticated faucet session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/wallet"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingChallenge is returned when the challenge response has no challenge field.
	ErrMissingChallenge = fmt.Errorf("%w: missing challenge", api.ErrProtocol)

	// ErrMissingToken is returned when neither result.token nor data.token is present.
	ErrMissingToken = fmt.Errorf("%w: token not found in response", api.ErrProtocol)
)

const (
	challengePath = "/user/challenge"
	signupPath    = "/user/signup"
	loginPath     = "/user/login"
)

// Session is an authenticated faucet session. Expiry is enforced by the server;
// ExpiresAt is informational and zero when the token is opaque.
type Session struct {
	Token     string
	Identity  *wallet.Identity
	ExpiresAt time.Time
}

// Authenticator is the handshake surface the orchestrator depends on.
type Authenticator interface {
	FetchChallenge(ctx context.Context, address string) (string, error)
	Signup(ctx context.Context, identity *wallet.Identity, challenge string) (*Session, error)
	Login(ctx context.Context, identity *wallet.Identity, challenge string) (*Session, error)
}

type challengePayload struct {
	Challenge string `json:"challenge"`
}

type TokenPayload struct {
	Token string `json:"token"`
}

// TokenEnvelope is the signup/login response. The token is read from
// result.token first and data.token second.
type TokenEnvelope struct {
	api.Envelope[TokenPayload]
}

// Token returns the first non-empty token in extraction order.
func (e TokenEnvelope) Token() (string, error) {
	for _, p := range e.Payloads() {
		if p.Token != "" {
			return p.Token, nil
		}
	}
	return "", ErrMissingToken
}

type loginRequest struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

type signupRequest struct {
	loginRequest
	Username string `json:"username"`
}

// Client talks to the /user auth endpoints.
type Client struct {
	api *api.Client
}

func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// FetchChallenge requests a one-time challenge scoped to address.
func (c *Client) FetchChallenge(ctx context.Context, address string) (string, error) {
	query := url.Values{}
	query.Set("type", c.api.ProviderType())
	query.Set("address", address)

	var env api.Envelope[challengePayload]
	if err := c.api.Get(ctx, challengePath, query, "", &env); err != nil {
		return "", fmt.Errorf("failed to fetch challenge: %w", err)
	}
	if env.Result == nil || env.Result.Challenge == "" {
		return "", ErrMissingChallenge
	}
	return env.Result.Challenge, nil
}

// Signup registers a new account for identity, using the derived username.
func (c *Client) Signup(ctx context.Context, identity *wallet.Identity, challenge string) (*Session, error) {
	req, err := c.signedRequest(identity, challenge)
	if err != nil {
		return nil, err
	}
	return c.exchange(ctx, signupPath, signupRequest{
		loginRequest: req,
		Username:     wallet.Username(identity.Address),
	}, identity)
}

// Login opens a session for an account the server already knows.
func (c *Client) Login(ctx context.Context, identity *wallet.Identity, challenge string) (*Session, error) {
	req, err := c.signedRequest(identity, challenge)
	if err != nil {
		return nil, err
	}
	return c.exchange(ctx, loginPath, req, identity)
}

func (c *Client) signedRequest(signer wallet.Signer, challenge string) (loginRequest, error) {
	signature, err := signer.Sign(challenge)
	if err != nil {
		return loginRequest{}, fmt.Errorf("failed to sign challenge: %w", err)
	}
	return loginRequest{
		Type:      c.api.ProviderType(),
		Challenge: challenge,
		Signature: signature,
	}, nil
}

func (c *Client) exchange(ctx context.Context, path string, body any, identity *wallet.Identity) (*Session, error) {
	var env TokenEnvelope
	if err := c.api.Post(ctx, path, body, "", &env); err != nil {
		return nil, fmt.Errorf("%s failed: %w", path, err)
	}
	token, err := env.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	session := &Session{
		Token:     token,
		Identity:  identity,
		ExpiresAt: tokenExpiry(token),
	}
	if !session.ExpiresAt.IsZero() {
		logger.Debugf("[auth] session for %s expires at %s", identity.Address, session.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return session, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		if !errors.Is(err, jwt.ErrTokenMalformed) {
			logger.Debugf("[auth] could not inspect session token: %v", err)
		}
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
