package lending

import (
	"encoding/binary"
	"math/big"

	"lukechampine.com/blake3"
)

// Checksum returns a deterministic digest over m's persisted-layout
// fields: a caller holding a cached Market (e.g. the engine service's
// marketEntry, or a client that polled GetMarket) can compare
// checksums to detect it is looking at a stale copy before retrying a
// read-modify-write sequence, without needing a full field-by-field
// diff. It covers the config, share-tracker, pending-fee, timestamp and
// collateral-total fields written below; LastBorrowInterestRate and the
// interest curve's internal state are not included. Padding-only bytes have no analogue here since this is an in-memory
// POD, not the source's on-chain account layout.
func (m *Market) Checksum() [32]byte {
	h := blake3.New(32, nil)
	var scratch [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(scratch[:], v)
		h.Write(scratch[:])
	}
	writeI64 := func(v int64) { writeU64(uint64(v)) }
	writeBig := func(v *big.Int) {
		writeU64(uint64(v.Sign()))
		b := v.Bytes()
		writeU64(uint64(len(b)))
		h.Write(b)
	}

	h.Write(m.Config.Curator[:])
	writeU64(m.Config.Index)
	writeBig(m.Config.Ltv.MaxLTV.Bits())
	writeBig(m.Config.Ltv.UnhealthyLTV.Bits())
	writeBig(m.Config.Ltv.LiquidationBonus.Bits())
	writeBig(m.Config.MaxUtilisationRate.Bits())
	writeU64(m.Config.MaxSupplyAtoms)
	writeU64(uint64(m.Config.LendingMarketFeeBps))
	writeU64(uint64(m.Config.ProtocolFeeShareBps))

	h.Write(m.Supply.Mint[:])
	writeU64(uint64(m.Supply.MintDecimals))
	writeBig(m.Supply.Supply.TotalShares.Bits())
	writeBig(m.Supply.Supply.AtomsPerShare.Bits())
	writeBig(m.Supply.Borrow.TotalShares.Bits())
	writeBig(m.Supply.Borrow.AtomsPerShare.Bits())
	writeBig(m.Supply.PendingProtocolFeeShares.Bits())
	writeBig(m.Supply.PendingCuratorFeeShares.Bits())
	writeI64(m.Supply.LastUpdateUnixTimestamp)

	h.Write(m.Collateral.Mint[:])
	writeU64(uint64(m.Collateral.MintDecimals))
	writeU64(m.Collateral.TotalCollateralAtoms)

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
