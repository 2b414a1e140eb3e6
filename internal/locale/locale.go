// Package locale resolves a buyer locale to a checkout currency.
package locale

import "strings"

var currencyByRegion = map[string]string{
	"US": "usd",
	"CA": "cad",
	"GB": "gbp",
	"AU": "aud",
	"NZ": "nzd",
	"JP": "jpy",
	"DE": "eur",
	"FR": "eur",
	"ES": "eur",
	"IT": "eur",
	"NL": "eur",
	"IE": "eur",
	"AT": "eur",
	"BE": "eur",
	"PT": "eur",
	"FI": "eur",
}

// DefaultCurrency is used when the locale carries no known region
const DefaultCurrency = "usd"

// CurrencyFor maps a BCP 47-ish locale tag ("en-US", "de_DE", "fr") to a
// lowercase ISO currency code accepted by the payment provider.
func CurrencyFor(locale string) string {
	locale = strings.ReplaceAll(locale, "_", "-")
	parts := strings.Split(locale, "-")
	if len(parts) < 2 {
		return DefaultCurrency
	}
	region := strings.ToUpper(parts[len(parts)-1])
	if cur, ok := currencyByRegion[region]; ok {
		return cur
	}
	return DefaultCurrency
}
