package faucet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/auth"
	"github.com/forest-army/faucet-claimer/pkg/logger"
)

// ConflictMessage is the server message for a claim made while the cooldown is active.
const ConflictMessage = "Faucet request already made"

const (
	faucetPath = "/user/faucet"
	userPath   = "/user"
)

// ErrNoSession is returned when a call is made without a session token.
var ErrNoSession = errors.New("no session token")

// Client represents a faucet client for claiming testnet funds
type Client struct {
	api *api.Client
}

// AccountStatus is the server-authoritative claim state of an account.
type AccountStatus struct {
	Username           string
	NextClaimAllowedAt time.Time // zero means claimable now
}

// Claimable reports whether a claim may be attempted at now.
func (s *AccountStatus) Claimable(now time.Time) bool {
	return s.NextClaimAllowedAt.IsZero() || !s.NextClaimAllowedAt.After(now)
}

// Ack is the claim response. Any 2xx counts as a grant; the API does not
// document the body, so Result holds whatever "result" or "data" decoded to.
type Ack struct {
	Result any
	Body   []byte
}

type userPayload struct {
	Username                   string `json:"username"`
	NextFaucetRequestTimestamp int64  `json:"nextFaucetRequestTimestamp"` // unix millis
}

// NewClient creates a new faucet client
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// Claim requests a faucet grant for the session's account. It does not retry.
func (c *Client) Claim(ctx context.Context, session *auth.Session) (*Ack, error) {
	if session == nil || session.Token == "" {
		return nil, ErrNoSession
	}
	var body []byte
	if err := c.api.Post(ctx, faucetPath, struct{}{}, session.Token, &body); err != nil {
		return nil, fmt.Errorf("failed to claim faucet: %w", err)
	}
	ack := &Ack{Body: body}
	var env api.Envelope[any]
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Debugf("[faucet] claim body is not an envelope (%v): %q", err, body)
	} else if payloads := env.Payloads(); len(payloads) > 0 {
		ack.Result = *payloads[0]
	}
	logger.Debugf("[faucet] claim accepted for %s", sessionAddress(session))
	return ack, nil
}

// FetchAccountStatus reads the username and the next allowed claim time.
func (c *Client) FetchAccountStatus(ctx context.Context, session *auth.Session) (*AccountStatus, error) {
	if session == nil || session.Token == "" {
		return nil, ErrNoSession
	}
	var env api.Envelope[userPayload]
	if err := c.api.Get(ctx, userPath, nil, session.Token, &env); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	payloads := env.Payloads()
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: user info has no result", api.ErrProtocol)
	}
	user := payloads[0]

	status := &AccountStatus{Username: user.Username}
	if user.NextFaucetRequestTimestamp > 0 {
		status.NextClaimAllowedAt = time.UnixMilli(user.NextFaucetRequestTimestamp)
	}
	return status, nil
}

// IsClaimConflict reports whether err means the faucet was already claimed
// for the current cooldown window.
func IsClaimConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(api.Message(err), ConflictMessage)
}

func sessionAddress(session *auth.Session) string {
	if session.Identity == nil {
		return "<unknown>"
	}
	return session.Identity.Address
}
