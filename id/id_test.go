package id_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pcetoken/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"JournalID", id.NewJournalID, "jrnl_"},
		{"AuditID", id.NewAuditID, "aud_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.newFn().String()
			assert.True(t, strings.HasPrefix(s, tt.prefix), "%s lacks prefix %s", s, tt.prefix)
			assert.Greater(t, len(s), len(tt.prefix))
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	j := id.NewJournalID()
	_, err := id.ParseJournalID(j.String())
	require.NoError(t, err)

	_, err = id.ParseAuditID(j.String())
	assert.Error(t, err, "ParseAuditID should reject a jrnl_ ID")

	_, err = id.Parse("")
	assert.Error(t, err)
}

func TestNilID(t *testing.T) {
	var i id.ID
	assert.True(t, i.IsNil())
	assert.Empty(t, i.String())
	assert.Empty(t, i.Prefix())
}

func TestTextAndScan(t *testing.T) {
	src := id.NewJournalID()
	data, err := src.MarshalText()
	require.NoError(t, err)

	var restored id.ID
	require.NoError(t, restored.UnmarshalText(data))
	assert.Equal(t, src.String(), restored.String())

	val, err := src.Value()
	require.NoError(t, err)
	var scanned id.ID
	require.NoError(t, scanned.Scan(val))
	assert.Equal(t, src.String(), scanned.String())

	var fromNull id.ID
	require.NoError(t, fromNull.Scan(nil))
	assert.True(t, fromNull.IsNil())
	assert.Error(t, fromNull.Scan(42))
}

func TestUniqueness(t *testing.T) {
	a := id.NewJournalID()
	b := id.NewJournalID()
	assert.NotEqual(t, a.String(), b.String())
}
