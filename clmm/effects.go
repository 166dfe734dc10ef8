package clmm

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TokenTransfer is the abstract token-custody effect boundary. Token
// custody itself — escrow, vault transfers, mint authority — is an
// explicit non-goal of this engine; operations only ever call through
// this interface, grounded on
// original_source/programs/clmm/src/instructions/shared_functions.rs's
// transfer_tokens/transfer_from_pda (the pool-authority-signed leg).
type TokenTransfer interface {
	UserToVault(ctx context.Context, mint solana.PublicKey, amount uint64) error
	VaultToUser(ctx context.Context, mint solana.PublicKey, amount uint64) error
}

// AddressDeriver computes the deterministic storage addresses the host is
// responsible for persisting (see spec §6.3): pool, position, and
// tick-array accounts are all derived from a fixed seed tag plus the
// entity's natural key. Grounded on
// clmm_tickerarray.go's getPdaTickArrayAddress/GetPdaExBitmapAccount.
type AddressDeriver interface {
	PoolAddress(token0, token1 solana.PublicKey, tickSpacing int32) (solana.PublicKey, uint8, error)
	PositionAddress(pool, owner solana.PublicKey, lower, upper int32) (solana.PublicKey, uint8, error)
	TickArrayAddress(pool solana.PublicKey, startTick int32) (solana.PublicKey, uint8, error)
}

var (
	poolSeed      = []byte("pool")
	positionSeed  = []byte("position")
	tickArraySeed = []byte("tick_array")
)

// PDADeriver is the default AddressDeriver, backed by
// solana.FindProgramAddress the same way shared_functions.rs signs vault
// transfers with `[b"pool", token_0, token_1, tick_spacing_le_bytes, bump]`.
type PDADeriver struct {
	ProgramID solana.PublicKey
}

func (d PDADeriver) PoolAddress(token0, token1 solana.PublicKey, tickSpacing int32) (solana.PublicKey, uint8, error) {
	spacing := int32LE(tickSpacing)
	return solana.FindProgramAddress([][]byte{poolSeed, token0[:], token1[:], spacing}, d.ProgramID)
}

func (d PDADeriver) PositionAddress(pool, owner solana.PublicKey, lower, upper int32) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		positionSeed, pool[:], owner[:], int32LE(lower), int32LE(upper),
	}, d.ProgramID)
}

func (d PDADeriver) TickArrayAddress(pool solana.PublicKey, startTick int32) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{
		tickArraySeed, pool[:], int32LE(startTick),
	}, d.ProgramID)
}

func int32LE(v int32) []byte {
	u := uint32(v)
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}
