// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "math"

// MaxLifetime is the bound given to bytecode recovered from the module store.
var MaxLifetime = LiveUntil(math.MaxUint32)

// Lifetime is the ledger sequence bound of a record. An unbounded lifetime
// never expires.
type Lifetime struct {
	Bounded   bool
	LiveUntil uint32
}

func Permanent() Lifetime { return Lifetime{} }

func LiveUntil(seq uint32) Lifetime {
	return Lifetime{Bounded: true, LiveUntil: seq}
}

// IsLive reports whether a record with this lifetime is usable at [seq].
func (l Lifetime) IsLive(seq uint32) bool {
	return !l.Bounded || seq < l.LiveUntil
}

// Ptr returns the bound as an optional value, nil when unbounded.
func (l Lifetime) Ptr() *uint32 {
	if !l.Bounded {
		return nil
	}
	v := l.LiveUntil
	return &v
}

// LifetimeOf is the inverse of Ptr.
func LifetimeOf(liveUntil *uint32) Lifetime {
	if liveUntil == nil {
		return Permanent()
	}
	return LiveUntil(*liveUntil)
}
