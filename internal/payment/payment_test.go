package payment

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/evidenceledger/proxybid/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCase = &models.CaseResult{
	CourtCode:       "B000210",
	CaseNumber:      "20240130012345",
	PrintCaseNumber: "2024타경12345",
}

func TestInstructions(t *testing.T) {
	s := New(Config{
		ServiceFee:    150000,
		Bank:          "신한은행",
		AccountNumber: "100-123-456789",
		AccountHolder: "(주)프록시비드",
		PayURL:        "https://pay.example.com/checkout",
	})

	inst, err := s.Instructions(testCase)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), inst.ServiceFee)
	assert.Equal(t, "B000210-2024-12345", inst.Reference)
	assert.Equal(t, "https://pay.example.com/checkout?amount=150000&ref=B000210-2024-12345", inst.PayLink)

	require.True(t, strings.HasPrefix(inst.QRCode, "data:image/png;base64,"))
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(inst.QRCode, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestInstructionsWithoutPayURL(t *testing.T) {
	inst, err := New(Config{}).Instructions(testCase)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultServiceFee), inst.ServiceFee)
	assert.Empty(t, inst.PayLink)
	assert.Empty(t, inst.QRCode)
}

func TestInstructionsWithoutCase(t *testing.T) {
	_, err := New(Config{}).Instructions(nil)
	assert.Error(t, err)
}

func TestReferenceFallback(t *testing.T) {
	assert.Equal(t, "B000210-20240130012345", Reference(&models.CaseResult{CourtCode: "B000210", CaseNumber: "20240130012345"}))
}
