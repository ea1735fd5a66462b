package collector

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/forest-army/faucet-claimer/pkg/currency"
	"github.com/forest-army/faucet-claimer/pkg/logger"
)

// EVMCollector reads native balances from an Ethereum-compatible node. It
// feeds both the balance gauge and the post-claim balance line.
type EVMCollector struct {
	client           *ethclient.Client
	unit             *currency.Unit
	currencyRegistry *currency.Registry
}

// NewEVMCollector dials rpcURL. Balances are reported in unit.
func NewEVMCollector(ctx context.Context, rpcURL string, unit *currency.Unit, timeout time.Duration) (*EVMCollector, error) {
	if unit == nil {
		unit = currency.DefaultETH
	}
	httpClient := &http.Client{Timeout: timeout}

	rpcClient, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}

	return &EVMCollector{
		client:           ethclient.NewClient(rpcClient),
		unit:             unit,
		currencyRegistry: currency.NewDefaultRegistry(),
	}, nil
}

// BalanceAt returns the latest balance of address in wei.
func (ec *EVMCollector) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	balance, err := ec.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", address, err)
	}
	return balance, nil
}

// DisplayBalance renders the balance of address for the console, e.g. "0.1 ETH".
func (ec *EVMCollector) DisplayBalance(ctx context.Context, address string) (string, error) {
	balance, err := ec.BalanceAt(ctx, address)
	if err != nil {
		return "", err
	}
	return currency.Format(balance, ec.unit), nil
}

// CollectAccountBalance implements BalanceProcessor
func (ec *EVMCollector) CollectAccountBalance(ctx context.Context, account *Account) (*BaseResult, error) {
	balance, err := ec.BalanceAt(ctx, account.Address)
	if err != nil {
		return nil, err
	}

	converted, err := ec.currencyRegistry.FromWei(balance, ec.unit.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to convert balance: %w", err)
	}

	logger.Debugf("balance for %s: %s wei (%s %s)", account.Address, balance.String(), converted.String(), ec.unit.Symbol)

	return &BaseResult{
		Account: *account,
		Value:   converted.InexactFloat64(),
		Health:  1.0,
	}, nil
}

// Close implements proper cleanup
func (ec *EVMCollector) Close() error {
	if ec.client != nil {
		ec.client.Close()
	}
	return nil
}
