package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// ErrUnparseablePrice reports currency text that does not conform to the
// locale's number format.
var ErrUnparseablePrice = errors.New("unparseable price text")

var amountPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

var currencyTokens = []string{"€", "EUR", "£", "GBP", "$", "USD"}

// commaDecimalLocales write "1.234,56": "." for thousands, "," for
// decimals. Everything else is treated as "1,234.56".
var commaDecimalLocales = map[string]bool{
	"it": true,
	"de": true,
	"fr": true,
	"es": true,
}

// ParsePrice converts raw currency text such as "1.183,29 €" into a
// non-negative decimal amount under the formatting rules of the given
// locale. Currency symbols, regular and non-breaking spaces are stripped
// before number parsing. Empty or malformed input fails with
// ErrUnparseablePrice.
func ParsePrice(raw string, tag language.Tag) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty input", ErrUnparseablePrice)
	}

	for _, token := range currencyTokens {
		cleaned = strings.ReplaceAll(cleaned, token, "")
	}
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, cleaned)

	base, _ := tag.Base()
	if commaDecimalLocales[base.String()] {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if !amountPattern.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, raw)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, raw)
	}
	return amount, nil
}
