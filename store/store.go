// Package store is the snapshot/persistence harness: it durably records
// an Engine's Pool, Positions, and tick-array shards so a process can
// restart without losing state. Grounded on the teacher's
// CorePool.Flush (create-if-new / update-if-existing against a *gorm.DB)
// and TokenPositionManager's GormDataType/Scan/Value trio for embedding a
// complex in-memory structure as a single column, generalized from that
// trio's encoding/json to github.com/gagliardetto/binary since every blob
// here already has a natural fixed binary layout (spec.md §6.3).
package store

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"lukechampine.com/uint128"

	"github.com/clmm-engine/clmm-core/clmm"
	"github.com/clmm-engine/clmm-core/pool"
	"github.com/clmm-engine/clmm-core/position"
	"github.com/clmm-engine/clmm-core/ticks"
)

// positionRow is the wire form of one position.Position.
type positionRow struct {
	Owner     solana.PublicKey `bin:"le"`
	Lower     int32            `bin:"le"`
	Upper     int32            `bin:"le"`
	Liquidity uint128.Uint128  `bin:"le"`
}

// PositionSet is the GORM column type embedding every live position
// belonging to one pool.
type PositionSet []positionRow

func (PositionSet) GormDataType() string { return "blob" }

func (s PositionSet) Value() (driver.Value, error) {
	buf := new(bytes.Buffer)
	enc := binary.NewBinEncoder(buf)
	if err := enc.Encode(uint32(len(s))); err != nil {
		return nil, err
	}
	for i := range s {
		if err := enc.Encode(&s[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *PositionSet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("store: cannot scan %T into PositionSet", value)
	}

	dec := binary.NewBinDecoder(data)
	var count uint32
	if err := dec.Decode(&count); err != nil {
		return err
	}
	rows := make([]positionRow, count)
	for i := range rows {
		if err := dec.Decode(&rows[i]); err != nil {
			return err
		}
	}
	*s = rows
	return nil
}

// TickArraySet is the GORM column type embedding every tick-array shard
// touched so far for one pool.
type TickArraySet []ticks.TickArray

func (TickArraySet) GormDataType() string { return "blob" }

func (s TickArraySet) Value() (driver.Value, error) {
	buf := new(bytes.Buffer)
	enc := binary.NewBinEncoder(buf)
	if err := enc.Encode(uint32(len(s))); err != nil {
		return nil, err
	}
	for i := range s {
		if err := enc.Encode(&s[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (s *TickArraySet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("store: cannot scan %T into TickArraySet", value)
	}

	dec := binary.NewBinDecoder(data)
	var count uint32
	if err := dec.Decode(&count); err != nil {
		return err
	}
	arrays := make([]ticks.TickArray, count)
	for i := range arrays {
		if err := dec.Decode(&arrays[i]); err != nil {
			return err
		}
	}
	*s = arrays
	return nil
}

// PoolRecord is the GORM model for one pool's durable snapshot. The
// primary key is clmm.PoolIdentity(pool, deriver) — the same PDA an
// Engine keys its positions under — so Save/Load round-trip against the
// identity a real host would actually derive, not an arbitrary stand-in.
type PoolRecord struct {
	ID          string `gorm:"primaryKey"`
	Token0      string
	Token1      string
	Vault0      string
	Vault1      string
	TickSpacing int32
	Bump        uint8

	SqrtPriceX96Hi uint64
	SqrtPriceX96Lo uint64
	CurrentTick    int32

	GlobalLiquidityHi uint64
	GlobalLiquidityLo uint64

	Positions  PositionSet  `gorm:"type:blob"`
	TickArrays TickArraySet `gorm:"type:blob"`
}

// Store wraps a *gorm.DB with Engine-shaped load/save operations.
type Store struct {
	db  *gorm.DB
	log *logrus.Logger
}

// Open wraps an already-connected *gorm.DB (typically backed by
// github.com/glebarez/sqlite) and runs AutoMigrate for PoolRecord.
func Open(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PoolRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db, log: logrus.StandardLogger()}, nil
}

// Save flushes an Engine's full state to its row, creating it on first
// flush and updating it thereafter — the same HasCreated branch the
// teacher's CorePool.Flush uses.
func (s *Store) Save(e *clmm.Engine) error {
	rec, err := toRecord(e)
	if err != nil {
		return err
	}

	var existing PoolRecord
	err = s.db.First(&existing, "id = ?", rec.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if s.log.IsLevelEnabled(logrus.DebugLevel) {
			s.log.Debugf("store: creating pool record id=%s", rec.ID)
		}
		return s.db.Create(rec).Error
	case err != nil:
		return err
	default:
		return s.db.Model(&PoolRecord{}).Where("id = ?", rec.ID).Updates(map[string]interface{}{
			"sqrt_price_x96_hi":   rec.SqrtPriceX96Hi,
			"sqrt_price_x96_lo":   rec.SqrtPriceX96Lo,
			"current_tick":        rec.CurrentTick,
			"global_liquidity_hi": rec.GlobalLiquidityHi,
			"global_liquidity_lo": rec.GlobalLiquidityLo,
			"positions":           rec.Positions,
			"tick_arrays":         rec.TickArrays,
		}).Error
	}
}

// Load reconstructs an Engine from its durable row.
func Load(db *gorm.DB, poolID string, transfer clmm.TokenTransfer, deriver clmm.AddressDeriver) (*clmm.Engine, error) {
	var rec PoolRecord
	if err := db.First(&rec, "id = ?", poolID).Error; err != nil {
		return nil, err
	}
	return fromRecord(&rec, transfer, deriver)
}

func toRecord(e *clmm.Engine) (*PoolRecord, error) {
	p := e.Pool

	positions := make(PositionSet, 0)
	for _, key := range e.Positions.ByPool(clmm.PoolIdentity(p, e.Deriver)) {
		pos, err := e.Positions.Get(key)
		if err != nil {
			return nil, err
		}
		positions = append(positions, positionRow{
			Owner:     pos.Owner,
			Lower:     pos.Lower,
			Upper:     pos.Upper,
			Liquidity: pos.Liquidity,
		})
	}

	arrays := make(TickArraySet, 0, len(e.Arrays))
	for _, arr := range e.Arrays {
		arrays = append(arrays, *arr)
	}

	return &PoolRecord{
		ID:                clmm.PoolIdentity(p, e.Deriver).String(),
		Token0:            p.Token0.String(),
		Token1:            p.Token1.String(),
		Vault0:            p.Vault0.String(),
		Vault1:            p.Vault1.String(),
		TickSpacing:       p.TickSpacing,
		Bump:              p.Bump,
		SqrtPriceX96Hi:    p.SqrtPriceX96.Hi,
		SqrtPriceX96Lo:    p.SqrtPriceX96.Lo,
		CurrentTick:       p.CurrentTick,
		GlobalLiquidityHi: p.GlobalLiquidity.Hi,
		GlobalLiquidityLo: p.GlobalLiquidity.Lo,
		Positions:         positions,
		TickArrays:        arrays,
	}, nil
}

func fromRecord(rec *PoolRecord, transfer clmm.TokenTransfer, deriver clmm.AddressDeriver) (*clmm.Engine, error) {
	token0, err := solana.PublicKeyFromBase58(rec.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := solana.PublicKeyFromBase58(rec.Token1)
	if err != nil {
		return nil, err
	}
	vault0, err := solana.PublicKeyFromBase58(rec.Vault0)
	if err != nil {
		return nil, err
	}
	vault1, err := solana.PublicKeyFromBase58(rec.Vault1)
	if err != nil {
		return nil, err
	}

	p := &pool.Pool{
		Token0:          token0,
		Token1:          token1,
		Vault0:          vault0,
		Vault1:          vault1,
		TickSpacing:     rec.TickSpacing,
		Bump:            rec.Bump,
		SqrtPriceX96:    uint128.Uint128{Lo: rec.SqrtPriceX96Lo, Hi: rec.SqrtPriceX96Hi},
		CurrentTick:     rec.CurrentTick,
		GlobalLiquidity: uint128.Uint128{Lo: rec.GlobalLiquidityLo, Hi: rec.GlobalLiquidityHi},
	}

	e := clmm.NewEngine(p, transfer, deriver)
	poolID := clmm.PoolIdentity(p, deriver)

	for _, row := range rec.Positions {
		key := position.Key{Pool: poolID, Owner: row.Owner, Lower: row.Lower, Upper: row.Upper}
		if _, err := e.Positions.Open(key, row.Liquidity); err != nil {
			return nil, err
		}
	}
	for i := range rec.TickArrays {
		arr := rec.TickArrays[i]
		e.Arrays[arr.StartingTick] = &arr
	}

	return e, nil
}
