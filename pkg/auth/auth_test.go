package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/forest-army/faucet-claimer/pkg/api"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/forest-army/faucet-claimer/pkg/wallet"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.InitLogger()
}

const testKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

type fakeAPI struct {
	t             *testing.T
	challenge     string
	tokenResponse string
	lastBody      map[string]string
	lastPath      string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/challenge", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "BROWSER_EXTENSION", r.URL.Query().Get("type"))
		assert.NotEmpty(f.t, r.URL.Query().Get("address"))
		_, _ = w.Write([]byte(f.challenge))
	})
	token := func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path
		f.lastBody = map[string]string{}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastBody))
		_, _ = w.Write([]byte(f.tokenResponse))
	}
	mux.HandleFunc("/user/signup", token)
	mux.HandleFunc("/user/login", token)
	return mux
}

func newTestClient(t *testing.T, f *fakeAPI) *Client {
	f.t = t
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(api.NewClient(srv.URL, time.Second, api.WithProviderType("BROWSER_EXTENSION")))
}

func TestFetchChallenge(t *testing.T) {
	c := newTestClient(t, &fakeAPI{challenge: `{"result":{"challenge":"nonce-123"}}`})
	got, err := c.FetchChallenge(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "nonce-123", got)
}

func TestFetchChallengeMissingField(t *testing.T) {
	for _, body := range []string{`{"result":{}}`, `{"data":{"challenge":"x"}}`, `{}`} {
		c := newTestClient(t, &fakeAPI{challenge: body})
		_, err := c.FetchChallenge(context.Background(), "0xabc")
		assert.ErrorIs(t, err, ErrMissingChallenge, body)
		assert.ErrorIs(t, err, api.ErrProtocol, body)
	}
}

func TestSignupSendsSignedChallengeAndUsername(t *testing.T) {
	f := &fakeAPI{tokenResponse: `{"result":{"token":"tok-result"}}`}
	c := newTestClient(t, f)
	id, err := wallet.LoadIdentity(testKey)
	require.NoError(t, err)

	session, err := c.Signup(context.Background(), id, "nonce-123")
	require.NoError(t, err)

	assert.Equal(t, "tok-result", session.Token)
	assert.Same(t, id, session.Identity)
	assert.Equal(t, "/user/signup", f.lastPath)
	assert.Equal(t, "BROWSER_EXTENSION", f.lastBody["type"])
	assert.Equal(t, "nonce-123", f.lastBody["challenge"])
	assert.Equal(t, wallet.Username(id.Address), f.lastBody["username"])

	sig, err := hexutil.Decode(f.lastBody["signature"])
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("nonce-123")), sig)
	require.NoError(t, err)
	assert.Equal(t, id.Address, crypto.PubkeyToAddress(*pub).Hex())
}

func TestLoginOmitsUsernameAndReadsDataToken(t *testing.T) {
	f := &fakeAPI{tokenResponse: `{"data":{"token":"tok-data"}}`}
	c := newTestClient(t, f)
	id, err := wallet.LoadIdentity(testKey)
	require.NoError(t, err)

	session, err := c.Login(context.Background(), id, "nonce-9")
	require.NoError(t, err)

	assert.Equal(t, "tok-data", session.Token)
	assert.Equal(t, "/user/login", f.lastPath)
	_, hasUsername := f.lastBody["username"]
	assert.False(t, hasUsername)
}

func TestTokenEnvelopeExtractionOrder(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"result only", `{"result":{"token":"r"}}`, "r", false},
		{"data only", `{"data":{"token":"d"}}`, "d", false},
		{"result wins", `{"result":{"token":"r"},"data":{"token":"d"}}`, "r", false},
		{"empty result falls back to data", `{"result":{"token":""},"data":{"token":"d"}}`, "d", false},
		{"neither", `{"result":{"user":"x"}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env TokenEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))
			got, err := env.Token()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoginMissingToken(t *testing.T) {
	c := newTestClient(t, &fakeAPI{tokenResponse: `{"result":{}}`})
	id, err := wallet.LoadIdentity(testKey)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), id, "nonce")
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.ErrorIs(t, err, api.ErrProtocol)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.True(t, exp.Equal(tokenExpiry(signed)))
	assert.True(t, tokenExpiry("opaque-token").IsZero())
}
