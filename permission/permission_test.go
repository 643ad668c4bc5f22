package permission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/permission"
	"github.com/xraph/pcetoken/types"
)

var (
	self  = types.MustParseAddress("0x1000000000000000000000000000000000000001")
	x     = types.MustParseAddress("0x2000000000000000000000000000000000000002")
	other = types.MustParseAddress("0x3000000000000000000000000000000000000003")
)

func TestIsAllowed(t *testing.T) {
	candidates := []types.Address{self, x, other, types.ZeroAddress}

	t.Run("All allows everyone including self", func(t *testing.T) {
		for _, c := range candidates {
			assert.True(t, permission.IsAllowed(permission.All, nil, c), c.Hex())
		}
	})

	t.Run("None denies everyone", func(t *testing.T) {
		for _, c := range candidates {
			assert.False(t, permission.IsAllowed(permission.None, []types.Address{c}, c), c.Hex())
		}
	})

	t.Run("Include allows only listed", func(t *testing.T) {
		targets := []types.Address{x}
		for _, c := range candidates {
			assert.Equal(t, c == x, permission.IsAllowed(permission.Include, targets, c), c.Hex())
		}
	})

	t.Run("Exclude denies only listed", func(t *testing.T) {
		targets := []types.Address{x}
		for _, c := range candidates {
			assert.Equal(t, c != x, permission.IsAllowed(permission.Exclude, targets, c), c.Hex())
		}
	})

	t.Run("Unknown method denies", func(t *testing.T) {
		assert.False(t, permission.IsAllowed(permission.Method(9), []types.Address{x}, x))
	})

	t.Run("Include with empty list denies self", func(t *testing.T) {
		assert.False(t, permission.IsAllowed(permission.Include, nil, self))
	})
}

func TestRule(t *testing.T) {
	r := permission.Rule{Method: permission.Exclude, Targets: []types.Address{other}}
	assert.True(t, r.Allows(x))
	assert.False(t, r.Allows(other))
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want permission.Method
	}{
		{"none", permission.None},
		{"Include", permission.Include},
		{" EXCLUDE ", permission.Exclude},
		{"all", permission.All},
		{"0", permission.None},
		{"3", permission.All},
	}
	for _, tt := range tests {
		got, err := permission.ParseMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := permission.ParseMethod("sometimes")
	assert.Error(t, err)
	_, err = permission.ParseMethod("4")
	assert.Error(t, err)
}

func TestMethodText(t *testing.T) {
	b, err := permission.Include.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "include", string(b))

	var m permission.Method
	require.NoError(t, m.UnmarshalText([]byte("exclude")))
	assert.Equal(t, permission.Exclude, m)

	_, err = permission.Method(7).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "method(7)", permission.Method(7).String())
}
