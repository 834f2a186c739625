// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	require := require.New(t)

	err := fmt.Errorf("failed to resolve modules: %w", NotFound(ids.ID{1}))
	require.Equal(ModuleNotFound, KindOf(err))
	require.ErrorIs(err, ErrModuleNotFound)
	require.NotErrorIs(err, ErrStoreUnavailable)

	require.Equal(Unknown, KindOf(errors.New("plain")))
	require.Equal(Unknown, KindOf(nil))
}

func TestUnwrapCause(t *testing.T) {
	require := require.New(t)

	cause := errors.New("disk on fire")
	err := Unavailable(cause)
	require.ErrorIs(err, cause)
	require.ErrorIs(err, ErrStoreUnavailable)
	require.Contains(err.Error(), "disk on fire")
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "module not found names the hash",
			err:  NotFound(ids.ID{0xab}),
			want: "module not found: wasm ab00000000000000000000000000000000000000000000000000000000000000 was not uploaded",
		},
		{
			name: "contract error with doc",
			err:  ContractFailure(3, "NotAdmin", "caller is not the admin", nil),
			want: "contract error: NotAdmin (#3): caller is not the admin",
		},
		{
			name: "contract error without doc",
			err:  ContractFailure(3, "NotAdmin", "", nil),
			want: "contract error: NotAdmin (#3)",
		},
		{
			name: "validation",
			err:  Validationf("function name %q is too long", "x"),
			want: `validation error: function name "x" is too long`,
		},
		{
			name: "bare kind",
			err:  ErrBudgetExceeded,
			want: "budget exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}
