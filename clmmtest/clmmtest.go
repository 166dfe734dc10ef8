// Package clmmtest holds fixtures and builders shared across this
// module's package test suites (position, pool, clmm, store), grounded on
// the teacher repo's habit of building throwaway wallets/pools inline in
// each test via solana.NewWallet rather than maintaining golden fixture
// files.
package clmmtest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// NewTokenPair returns two distinct mints in the lexicographic order the
// pool constructor requires (token0 < token1).
func NewTokenPair() (token0, token1 solana.PublicKey) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	if LexLess(b, a) {
		a, b = b, a
	}
	return a, b
}

// LexLess reports whether a sorts before b byte-for-byte, the same
// ordering pool.New enforces between token0 and token1.
func LexLess(a, b solana.PublicKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// NewWallet returns a fresh throwaway public key, for use as a mint,
// vault, owner, or program ID in tests that don't care about its value.
func NewWallet() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// SqrtPriceAtTickZero is 1<<96, the Q64.96 encoding of price 1.0 — the
// conventional starting price for tests that don't exercise price
// movement directly.
var SqrtPriceAtTickZero = uint128.From64(1).Lsh(96)

// LedgerTransfer is an in-memory fixture satisfying clmm.TokenTransfer by
// structural typing: it records every leg against per-mint vault/user
// balances so tests can assert conservation across a sequence of
// operations without standing up a real host.
type LedgerTransfer struct {
	Vault map[solana.PublicKey]uint64
	User  map[solana.PublicKey]uint64
}

// NewLedgerTransfer returns an empty LedgerTransfer.
func NewLedgerTransfer() *LedgerTransfer {
	return &LedgerTransfer{
		Vault: make(map[solana.PublicKey]uint64),
		User:  make(map[solana.PublicKey]uint64),
	}
}

func (l *LedgerTransfer) UserToVault(_ context.Context, mint solana.PublicKey, amount uint64) error {
	l.User[mint] -= amount
	l.Vault[mint] += amount
	return nil
}

func (l *LedgerTransfer) VaultToUser(_ context.Context, mint solana.PublicKey, amount uint64) error {
	l.Vault[mint] -= amount
	l.User[mint] += amount
	return nil
}
