// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

const (
	DefaultCPUInstructions = 100_000_000
	DefaultMemoryBytes     = 40 * 1024 * 1024
)

// DefaultBudget is the ceiling applied when a call carries none.
var DefaultBudget = Budget{
	CPUInstructions: DefaultCPUInstructions,
	MemoryBytes:     DefaultMemoryBytes,
}

// Budget caps the resources a single invocation may consume.
type Budget struct {
	CPUInstructions uint64
	MemoryBytes     uint64
}

// Exceeded reports whether the given consumption is past either ceiling.
func (b Budget) Exceeded(cpu, mem uint64) bool {
	return cpu > b.CPUInstructions || mem > b.MemoryBytes
}
