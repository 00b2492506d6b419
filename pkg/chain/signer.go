package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"swap-loop/pkg/types"
)

// Signer is one wallet's parsed signing key. It is owned by the orchestrator
// for the duration of a cycle pass and never persisted.
type Signer struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// NewSigner parses a wallet's private key and verifies it actually controls
// the wallet's declared address. A mismatch is fatal for that wallet: signing
// with the wrong key would burn gas from an unintended account.
func NewSigner(wallet types.Wallet) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(wallet.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key for %s: %w", wallet.Address, err)
	}

	derived := crypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(derived.Hex(), wallet.Address) {
		return nil, fmt.Errorf("private key does not match address %s", wallet.Address)
	}

	return &Signer{Address: derived, Key: key}, nil
}
