package faucet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/auth"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.InitLogger()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(api.NewClient(srv.URL, time.Second))
}

var testSession = &auth.Session{Token: "tok-1"}

func TestClaimSendsToken(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/faucet", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get(api.TokenHeader))
		_, _ = w.Write([]byte(`{"result":{"amount":"1"}}`))
	})

	ack, err := c.Claim(context.Background(), testSession)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, map[string]any{"amount": "1"}, ack.Result)
}

func TestClaimAcceptsAny2xxBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result any
	}{
		{"tx hash result", `{"result":"0xabc"}`, "0xabc"},
		{"boolean result", `{"result":true}`, true},
		{"data payload", `{"data":{"tx":"0x1"}}`, map[string]any{"tx": "0x1"}},
		{"null result", `{"result":null}`, nil},
		{"plain text", `ok`, nil},
		{"empty body", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			ack, err := c.Claim(context.Background(), testSession)
			require.NoError(t, err)
			assert.Equal(t, tt.result, ack.Result)
			assert.Equal(t, tt.body, string(ack.Body))
		})
	}
}

func TestClaimPropagatesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Faucet request already made, try later"}`))
	})

	_, err := c.Claim(context.Background(), testSession)
	require.Error(t, err)
	assert.Equal(t, "Faucet request already made, try later", api.Message(err))
	assert.True(t, IsClaimConflict(err))
}

func TestClaimWithoutSession(t *testing.T) {
	c := NewClient(api.NewClient("http://127.0.0.1:0", time.Second))
	_, err := c.Claim(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = c.FetchAccountStatus(context.Background(), &auth.Session{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFetchAccountStatus(t *testing.T) {
	next := time.Now().Add(90 * time.Minute).Truncate(time.Millisecond)

	tests := []struct {
		name      string
		body      string
		wantUser  string
		wantNext  time.Time
		claimable bool
		wantErr   error
	}{
		{
			name:      "cooldown active",
			body:      fmt.Sprintf(`{"result":{"username":"user_abc123","nextFaucetRequestTimestamp":%d}}`, next.UnixMilli()),
			wantUser:  "user_abc123",
			wantNext:  next,
			claimable: false,
		},
		{
			name:      "zero timestamp",
			body:      `{"result":{"username":"user_abc123","nextFaucetRequestTimestamp":0}}`,
			wantUser:  "user_abc123",
			claimable: true,
		},
		{
			name:      "missing timestamp in data envelope",
			body:      `{"data":{"username":"user_def456"}}`,
			wantUser:  "user_def456",
			claimable: true,
		},
		{
			name:    "no payload",
			body:    `{}`,
			wantErr: api.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/user", r.URL.Path)
				assert.Equal(t, "tok-1", r.Header.Get(api.TokenHeader))
				_, _ = w.Write([]byte(tt.body))
			})

			status, err := c.FetchAccountStatus(context.Background(), testSession)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, status.Username)
			assert.True(t, tt.wantNext.Equal(status.NextClaimAllowedAt))
			assert.Equal(t, tt.claimable, status.Claimable(time.Now()))
		})
	}
}

func TestClaimableBoundary(t *testing.T) {
	now := time.Now()
	assert.True(t, (&AccountStatus{NextClaimAllowedAt: now}).Claimable(now))
	assert.True(t, (&AccountStatus{NextClaimAllowedAt: now.Add(-time.Second)}).Claimable(now))
	assert.False(t, (&AccountStatus{NextClaimAllowedAt: now.Add(time.Millisecond)}).Claimable(now))
}

func TestIsClaimConflict(t *testing.T) {
	assert.False(t, IsClaimConflict(nil))
	assert.False(t, IsClaimConflict(errors.New("connection reset")))
	assert.False(t, IsClaimConflict(&api.Error{StatusCode: 500, Message: "internal"}))
	assert.True(t, IsClaimConflict(fmt.Errorf("wrapped: %w", &api.Error{StatusCode: 400, Message: ConflictMessage})))
	// transports without a structured body still surface the phrase via err.Error()
	assert.True(t, IsClaimConflict(errors.New("Faucet request already made")))
}
