// Package chain wraps the EVM node connection: startup validation,
// ERC-20 reads, and the per-wallet balance fan-out.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Minimal ERC-20 fragment: the engine only reads balances and precision.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// Client is a read-side wrapper around one node connection. It is shared by
// all wallets; every method is a plain read and safe to interleave at the
// fan-out points.
type Client struct {
	backend Backend
	erc20   abi.ABI
}

// NewClient wraps a node backend.
func NewClient(backend Backend) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return &Client{backend: backend, erc20: parsed}, nil
}

// Backend exposes the underlying node connection for the submitters.
func (c *Client) Backend() Backend { return c.backend }

// ValidateEnvironment checks that the node serves the expected chain and that
// the router and both tokens are deployed contracts. Any failure here is
// fatal for the whole process: no wallet can swap safely against a wrong
// chain or an address without code.
func (c *Client) ValidateEnvironment(ctx context.Context, chainID int64, router, usdc, weth common.Address) error {
	gotChainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query chain id: %w", err)
	}
	if gotChainID.Int64() != chainID {
		return fmt.Errorf("provider chain id %s != expected %d", gotChainID, chainID)
	}

	checks := []struct {
		name string
		addr common.Address
	}{
		{"router", router},
		{"USDC", usdc},
		{"WETH", weth},
	}
	for _, check := range checks {
		code, err := c.backend.CodeAt(ctx, check.addr, nil)
		if err != nil {
			return fmt.Errorf("failed to read code at %s address %s: %w", check.name, check.addr.Hex(), err)
		}
		if len(code) == 0 {
			return fmt.Errorf("%s address %s has no contract code on chain %d", check.name, check.addr.Hex(), chainID)
		}
	}
	return nil
}

// TokenBalance reads an ERC-20 balance.
func (c *Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := c.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf on %s: %w", token.Hex(), err)
	}
	return new(big.Int).SetBytes(result), nil
}

// TokenDecimals reads an ERC-20's precision.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (int, error) {
	data, err := c.erc20.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to pack decimals: %w", err)
	}
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call decimals on %s: %w", token.Hex(), err)
	}
	return int(new(big.Int).SetBytes(result).Int64()), nil
}

// Balances is one wallet's holdings in smallest units.
type Balances struct {
	EthWei  *big.Int
	UsdcWei *big.Int
	WethWei *big.Int
}

// Balances reads the native balance and both token balances for one account.
// The three reads run concurrently and are joined before returning; nothing
// downstream starts until all three have resolved.
func (c *Client) Balances(ctx context.Context, account, usdc, weth common.Address) (Balances, error) {
	var balances Balances
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		wei, err := c.backend.BalanceAt(ctx, account, nil)
		if err != nil {
			return fmt.Errorf("failed to read native balance: %w", err)
		}
		balances.EthWei = wei
		return nil
	})
	group.Go(func() error {
		wei, err := c.TokenBalance(ctx, usdc, account)
		if err != nil {
			return err
		}
		balances.UsdcWei = wei
		return nil
	})
	group.Go(func() error {
		wei, err := c.TokenBalance(ctx, weth, account)
		if err != nil {
			return err
		}
		balances.WethWei = wei
		return nil
	})
	if err := group.Wait(); err != nil {
		return Balances{}, err
	}
	return balances, nil
}
