// Package wallet creates and loads the EVM identities used to sign faucet challenges.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidSecret is returned when a private key is missing or malformed.
var ErrInvalidSecret = errors.New("invalid private key")

// DefaultDerivationPath is the first account of the standard EVM BIP-44 tree.
var DefaultDerivationPath = accounts.DefaultBaseDerivationPath

const (
	mnemonicEntropyBits = 128
	usernamePrefix      = "user_"
)

// Signer proves control of an address by signing server challenges.
type Signer interface {
	Sign(message string) (string, error)
}

// Identity is an address together with its signing key. Mnemonic is empty
// for identities loaded from a bare private key.
type Identity struct {
	Address    string
	PrivateKey string
	Mnemonic   string

	key *ecdsa.PrivateKey
}

// CreateIdentity generates a fresh 12-word mnemonic and derives the first
// account key from it.
func CreateIdentity() (*Identity, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return FromMnemonic(mnemonic)
}

// FromMnemonic derives the identity at DefaultDerivationPath.
func FromMnemonic(mnemonic string) (*Identity, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("%w: mnemonic failed checksum", ErrInvalidSecret)
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, index := range DefaultDerivationPath {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key: %w", err)
		}
	}
	ecPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to extract private key: %w", err)
	}

	identity := newIdentity(ecPriv.ToECDSA())
	identity.Mnemonic = mnemonic
	return identity, nil
}

// LoadIdentity builds an identity from a hex private key, with or without 0x.
func LoadIdentity(secret string) (*Identity, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is empty", ErrInvalidSecret)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(secret, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return newIdentity(key), nil
}

func newIdentity(key *ecdsa.PrivateKey) *Identity {
	return &Identity{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		key:        key,
	}
}

// Sign returns the EIP-191 personal_sign signature of message, 0x-prefixed,
// with V in {27, 28}.
func (i *Identity) Sign(message string) (string, error) {
	if i == nil || i.key == nil {
		return "", fmt.Errorf("%w: identity has no signing key", ErrInvalidSecret)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Username is the signup name the faucet UI derives from an address.
func Username(address string) string {
	if len(address) < 8 {
		return usernamePrefix + strings.TrimPrefix(address, "0x")
	}
	return usernamePrefix + address[2:8]
}
