// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"math"

	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/vmerr"
)

// NetworkConfig carries engine limits and fee parameters. Zero fields are
// left to the engine's defaults.
type NetworkConfig struct {
	TxMaxInstructions     int64  `json:"tx_max_instructions,omitempty"`
	TxMemoryLimit         uint32 `json:"tx_memory_limit,omitempty"`
	MinTempEntryTTL       uint32 `json:"min_temp_entry_ttl,omitempty"`
	MinPersistentEntryTTL uint32 `json:"min_persistent_entry_ttl,omitempty"`
	MaxEntryTTL           uint32 `json:"max_entry_ttl,omitempty"`

	FeePerInstructionIncrement int64 `json:"fee_per_instruction_increment,omitempty"`
	FeePerReadEntry            int64 `json:"fee_per_read_entry,omitempty"`
	FeePerWriteEntry           int64 `json:"fee_per_write_entry,omitempty"`
	FeePerRead1KB              int64 `json:"fee_per_read_1kb,omitempty"`
	FeePerWrite1KB             int64 `json:"fee_per_write_1kb,omitempty"`
	FeePerHistorical1KB        int64 `json:"fee_per_historical_1kb,omitempty"`
	FeePerContractEvent1KB     int64 `json:"fee_per_contract_event_1kb,omitempty"`
	FeePerTransactionSize1KB   int64 `json:"fee_per_transaction_size_1kb,omitempty"`
}

// ApplyTTL overrides the TTL bounds of [config] with the ones set in [nc].
func (nc *NetworkConfig) ApplyTTL(config ledger.BuilderConfig) ledger.BuilderConfig {
	if nc == nil {
		return config
	}
	if nc.MinTempEntryTTL != 0 {
		config.MinTempEntryTTL = nc.MinTempEntryTTL
	}
	if nc.MinPersistentEntryTTL != 0 {
		config.MinPersistentEntryTTL = nc.MinPersistentEntryTTL
	}
	if nc.MaxEntryTTL != 0 {
		config.MaxEntryTTL = nc.MaxEntryTTL
	}
	return config
}

// AdjustmentFactor pads a simulated resource estimate to
// max(value*Multiplicative, value+Additive).
type AdjustmentFactor struct {
	Additive       uint64  `json:"additive_factor"`
	Multiplicative float64 `json:"multiplicative_factor"`
}

func (f AdjustmentFactor) Apply(value uint64) uint64 {
	scaled := math.Floor(float64(value) * f.Multiplicative)
	adjusted := uint64(math.MaxUint64)
	if scaled < math.MaxUint64 {
		adjusted = uint64(scaled)
	}
	if sum := value + f.Additive; sum >= value && adjusted < sum {
		adjusted = sum
	}
	return adjusted
}

func (f AdjustmentFactor) apply32(value uint32) uint32 {
	adjusted := f.Apply(uint64(value))
	if adjusted > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(adjusted)
}

// AdjustmentConfig pads each resource of a simulated footprint.
type AdjustmentConfig struct {
	Instructions  AdjustmentFactor `json:"instructions"`
	ReadBytes     AdjustmentFactor `json:"read_bytes"`
	WriteBytes    AdjustmentFactor `json:"write_bytes"`
	TxSize        AdjustmentFactor `json:"tx_size"`
	RefundableFee AdjustmentFactor `json:"refundable_fee"`
}

func DefaultAdjustmentConfig() AdjustmentConfig {
	return AdjustmentConfig{
		Instructions:  AdjustmentFactor{Additive: 50_000, Multiplicative: 1.02},
		ReadBytes:     AdjustmentFactor{Multiplicative: 1},
		WriteBytes:    AdjustmentFactor{Multiplicative: 1},
		TxSize:        AdjustmentFactor{Additive: 500, Multiplicative: 1.1},
		RefundableFee: AdjustmentFactor{Multiplicative: 1.15},
	}
}

// Verify rejects multiplicative factors that are negative or not finite.
func (c *AdjustmentConfig) Verify() error {
	factors := []struct {
		name   string
		factor AdjustmentFactor
	}{
		{"instructions", c.Instructions},
		{"read_bytes", c.ReadBytes},
		{"write_bytes", c.WriteBytes},
		{"tx_size", c.TxSize},
		{"refundable_fee", c.RefundableFee},
	}
	for _, f := range factors {
		m := f.factor.Multiplicative
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
			return vmerr.Validationf("adjustment %s has invalid multiplicative factor %v", f.name, m)
		}
	}
	return nil
}
