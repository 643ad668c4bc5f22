package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/pcetoken/token"
	"github.com/xraph/pcetoken/types"
)

func TestArigatoCreation(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		balance string
		want    string
	}{
		{"below threshold", "100", "1000", "0"},
		{"at threshold", "200", "1000", "0"},
		{"above threshold", "30", "100", "0.02"},
		{"usage capped", "100", "100", "0.02"},
		{"empty balance", "1", "0", "0"},
		{"zero amount", "0", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := token.ArigatoCreation{}.Issuance(token.IssuanceInput{
				Settings:      referenceSettings(),
				Amount:        types.MustParseUnits(tt.amount),
				SenderBalance: types.MustParseUnits(tt.balance),
			})
			assert.Equal(t, tt.want, types.FormatUnits(got))
		})
	}
}

func TestNoIssuance(t *testing.T) {
	got := token.NoIssuance.Issuance(token.IssuanceInput{Amount: types.Units(1)})
	assert.True(t, got.IsZero())
}

func TestArigatoCreationAtMaxAmount(t *testing.T) {
	in := token.IssuanceInput{
		Settings:      referenceSettings(),
		Amount:        types.MaxAmount(),
		SenderBalance: types.MaxAmount(),
	}
	got := token.ArigatoCreation{}.Issuance(in)
	assert.True(t, got.IsPositive())
	assert.True(t, types.Fits(got))
}
