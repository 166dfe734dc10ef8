// Package position implements PositionStore: LP position records keyed by
// (pool, owner, lower_tick, upper_tick), grounded on
// token_position_manager.go's TokenPositionManager (map plus owner/pool
// secondary indexes), generalized from that teacher's NFT-tokenID keying
// to this engine's structural key since positions here carry no token
// identity (original_source/programs/clmm/src/states/position.rs addresses
// positions the same structural way, by PDA over the same four fields).
package position

import (
	"errors"
	"sync"

	"github.com/clmm-engine/clmm-core/fixedmath"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

var (
	ErrInvalidAmount        = errors.New("position: decrease exceeds held liquidity")
	ErrPositionNotFound     = errors.New("position: no position at this key")
	ErrPositionExists       = errors.New("position: already open at this key")
	ErrInvalidPositionOwner = errors.New("position: caller does not own this position")
	ErrArithmeticOverflow   = errors.New("position: arithmetic overflow")
)

// Key identifies a position record.
type Key struct {
	Pool  solana.PublicKey
	Owner solana.PublicKey
	Lower int32
	Upper int32
}

// Position is an LP's bounded-range liquidity contribution.
type Position struct {
	Key
	Liquidity uint128.Uint128
}

// Store is an in-memory PositionStore keyed by (pool, owner, lower, upper),
// with owner and pool secondary indexes mirroring
// TokenPositionManager.OwnerTokens/PoolTokens.
type Store struct {
	mu        sync.RWMutex
	positions map[Key]*Position
	byOwner   map[solana.PublicKey][]Key
	byPool    map[solana.PublicKey][]Key
}

// NewStore returns an empty PositionStore.
func NewStore() *Store {
	return &Store{
		positions: make(map[Key]*Position),
		byOwner:   make(map[solana.PublicKey][]Key),
		byPool:    make(map[solana.PublicKey][]Key),
	}
}

// Open creates a new position with liquidity L0. Fails ErrPositionExists if
// one is already live at this key (open_position must go through
// increase_liquidity instead).
func (s *Store) Open(key Key, l0 uint128.Uint128) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[key]; ok {
		return nil, ErrPositionExists
	}
	p := &Position{Key: key, Liquidity: l0}
	s.positions[key] = p
	s.byOwner[key.Owner] = append(s.byOwner[key.Owner], key)
	s.byPool[key.Pool] = append(s.byPool[key.Pool], key)
	return p, nil
}

// Get returns the live position at key, or ErrPositionNotFound.
func (s *Store) Get(key Key) (*Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[key]
	if !ok {
		return nil, ErrPositionNotFound
	}
	return p, nil
}

// Increase adds delta to the position's liquidity, failing
// ErrArithmeticOverflow if the sum would not fit in 128 bits.
func (s *Store) Increase(key Key, delta uint128.Uint128) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[key]
	if !ok {
		return nil, ErrPositionNotFound
	}
	sum, err := fixedmath.FromCheckedInt(fixedmath.ToCheckedInt(p.Liquidity).Add(fixedmath.ToCheckedInt(delta)))
	if err != nil {
		return nil, ErrArithmeticOverflow
	}
	p.Liquidity = sum
	return p, nil
}

// Decrease subtracts delta from the position's liquidity. Fails
// ErrInvalidAmount if delta exceeds the liquidity currently held.
func (s *Store) Decrease(key Key, delta uint128.Uint128) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[key]
	if !ok {
		return nil, ErrPositionNotFound
	}
	if delta.Cmp(p.Liquidity) > 0 {
		return nil, ErrInvalidAmount
	}
	p.Liquidity = p.Liquidity.Sub(delta)
	return p, nil
}

// Close removes the position record entirely. Callers are expected to have
// already driven Liquidity to zero via Decrease, per close_position's
// documented equivalence to a full decrease followed by record deletion.
func (s *Store) Close(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[key]; !ok {
		return ErrPositionNotFound
	}
	delete(s.positions, key)
	s.byOwner[key.Owner] = removeKey(s.byOwner[key.Owner], key)
	s.byPool[key.Pool] = removeKey(s.byPool[key.Pool], key)
	return nil
}

// ByOwner lists every key currently open for owner.
func (s *Store) ByOwner(owner solana.PublicKey) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, len(s.byOwner[owner]))
	copy(out, s.byOwner[owner])
	return out
}

// ByPool lists every key currently open against pool.
func (s *Store) ByPool(pool solana.PublicKey) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, len(s.byPool[pool]))
	copy(out, s.byPool[pool])
	return out
}

// removeKey does the teacher's swap-remove-from-slice pattern (see
// token_position_manager.go's HandleTransfer).
func removeKey(keys []Key, target Key) []Key {
	for i, k := range keys {
		if k == target {
			keys[i] = keys[len(keys)-1]
			return keys[:len(keys)-1]
		}
	}
	return keys
}
