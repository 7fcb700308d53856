package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"120000000", 120000000, false},
		{"120,000,000", 120000000, false},
		{" 5 000 ", 5000, false},
		{"", 0, true},
		{"12a00", 0, true},
		{"-100", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNotNumeric, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatWon(t *testing.T) {
	assert.Equal(t, "1,250,000", FormatWon(1250000))
	assert.Equal(t, "0", FormatWon(0))
}

func TestDepositIsTenthOfLowestBid(t *testing.T) {
	assert.Equal(t, int64(8400000), DepositFor(84000000))
	assert.Equal(t, int64(12345), DepositFor(123456))
}

func TestApplicationTypeValid(t *testing.T) {
	assert.True(t, Personal.Valid())
	assert.True(t, Company.Valid())
	assert.True(t, Group.Valid())
	assert.False(t, ApplicationType("trust").Valid())
}
