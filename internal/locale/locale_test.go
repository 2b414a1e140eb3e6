package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyFor(t *testing.T) {
	cases := []struct {
		locale   string
		expected string
	}{
		{"en-US", "usd"},
		{"en-GB", "gbp"},
		{"de-DE", "eur"},
		{"de_DE", "eur"},
		{"fr-CA", "cad"},
		{"ja-JP", "jpy"},
		{"en-AU", "aud"},
		{"fr", "usd"},
		{"", "usd"},
		{"pt-BR", "usd"},
		{"zh-Hant-TW", "usd"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, CurrencyFor(tc.locale), "locale %q", tc.locale)
	}
}
