package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"250.00", 25000},
		{"250", 25000},
		{"0.5", 50},
		{".99", 99},
		{"  12.30 ", 1230},
		{"-10.50", -1050},
		{"999999999999.99", 99999999999999},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseNumeric(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumeric_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "Ksh 5", "1.999", "1.-5"} {
		_, err := parseNumeric(in)
		assert.Error(t, err, in)
	}
}

func TestFormatNumeric(t *testing.T) {
	assert.Equal(t, "250.00", formatNumeric(25000))
	assert.Equal(t, "0.05", formatNumeric(5))
	assert.Equal(t, "-3.10", formatNumeric(-310))
}

func TestAmountColumns(t *testing.T) {
	value, text := amountColumns(transaction.NewDecimalAmount(33))
	require.NotNil(t, value)
	assert.Nil(t, text)
	assert.Equal(t, "33.00", *value)

	value, text = amountColumns(transaction.NewTextAmount("250"))
	assert.Nil(t, value)
	require.NotNil(t, text)
	assert.Equal(t, "250", *text)

	value, text = amountColumns(transaction.Amount{})
	assert.Nil(t, value)
	assert.Nil(t, text)
}

func TestAmountFromColumns_RestoresKind(t *testing.T) {
	for _, a := range []transaction.Amount{
		transaction.NewDecimalAmount(250),
		transaction.NewTextAmount("two fifty"),
		{},
	} {
		value, text := amountColumns(a)
		back, err := amountFromColumns(value, text)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}

func TestAmountFromColumns_BadNumeric(t *testing.T) {
	bad := "x"
	_, err := amountFromColumns(&bad, nil)
	assert.Error(t, err)
}
