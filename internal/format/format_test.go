package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndianNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "small", input: "999", want: "999"},
		{name: "thousand", input: "1000", want: "1,000"},
		{name: "lakh", input: "123456", want: "1,23,456"},
		{name: "ten lakh", input: "1234567", want: "12,34,567"},
		{name: "crore", input: "123456789", want: "12,34,56,789"},
		{name: "fraction truncated", input: "1234567.891", want: "12,34,567.89"},
		{name: "short fraction kept", input: "2375.5", want: "2,375.5"},
		{name: "small fraction", input: "7.369", want: "7.36"},
		{name: "negative", input: "-123456", want: "-1,23,456"},
		{name: "zero", input: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IndianNumber(decimal.RequireFromString(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "whole", input: "2375", want: "₹2,375.00"},
		{name: "rounded to paise", input: "1234.567", want: "₹1,234.57"},
		{name: "zero", input: "0", want: "₹0.00"},
		{name: "lakh", input: "150000", want: "₹1,50,000.00"},
		{name: "negative", input: "-175", want: "-₹175.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestQuantity(t *testing.T) {
	assert.Equal(t, "95.00 MT", Quantity(decimal.NewFromInt(95), "MT"))
	assert.Equal(t, "10.50", Quantity(decimal.RequireFromString("10.5"), ""))
}

func TestDate(t *testing.T) {
	assert.Equal(t, "Jan 05, 2024", Date(time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)))
	assert.Empty(t, Date(time.Time{}))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "blank is zero", input: "  ", want: "0"},
		{name: "plain", input: "20", want: "20"},
		{name: "grouped", input: "1,23,456.50", want: "123456.5"},
		{name: "currency", input: "₹ 2,375", want: "2375"},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
