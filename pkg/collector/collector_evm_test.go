package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/currency"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEVMServer creates a test server that simulates an Ethereum node
func mockEVMServer(t *testing.T, balance string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}

		var req struct {
			JsonRPC string        `json:"jsonrpc"`
			Method  string        `json:"method"`
			Params  []interface{} `json:"params"`
			ID      int           `json:"id"`
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		var response interface{}
		switch req.Method {
		case "eth_getBalance":
			response = map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  balance,
			}
		default:
			response = map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(response)
		assert.NoError(t, err)
	}))
}

func init() {
	_ = logger.InitLogger()
}

const testAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

func TestEVMCollector_CollectAccountBalance(t *testing.T) {
	server := mockEVMServer(t, "0xDE0B6B3A7640000") // 1 ETH in wei
	defer server.Close()

	tests := []struct {
		name          string
		unit          *currency.Unit
		expectedValue float64
	}{
		{name: "balance in eth", unit: currency.DefaultETH, expectedValue: 1.0},
		{name: "balance in gwei", unit: currency.DefaultGWEI, expectedValue: 1e9},
		{name: "balance in wei", unit: currency.DefaultWEI, expectedValue: 1e18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec, err := NewEVMCollector(context.Background(), server.URL, tt.unit, time.Second)
			require.NoError(t, err)
			defer ec.Close()

			account := &Account{Name: "user_742d35", Address: testAddress}
			result, err := ec.CollectAccountBalance(context.Background(), account)
			require.NoError(t, err)
			assert.InDelta(t, tt.expectedValue, result.Value, tt.expectedValue*1e-12)
			assert.Equal(t, 1.0, result.Health)
			assert.Equal(t, *account, result.Account)
		})
	}
}

func TestEVMCollector_DisplayBalance(t *testing.T) {
	server := mockEVMServer(t, "0x6F05B59D3B20000") // 0.5 ETH
	defer server.Close()

	ec, err := NewEVMCollector(context.Background(), server.URL, nil, time.Second)
	require.NoError(t, err)
	defer ec.Close()

	got, err := ec.DisplayBalance(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, "0.5 ETH", got)
}

func TestEVMCollector_NodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ec, err := NewEVMCollector(context.Background(), server.URL, currency.DefaultETH, time.Second)
	require.NoError(t, err)
	defer ec.Close()

	_, err = ec.CollectAccountBalance(context.Background(), &Account{Address: testAddress})
	assert.Error(t, err)
}
