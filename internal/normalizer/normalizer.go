// Package normalizer turns free-text quantity fragments into typed values.
//
// Extraction output carries quantities exactly as written ("5 oz", "1/2 cup",
// "15 mins"). Downstream routing needs numbers and units, so normalization
// takes the first maximal numeric token (decimals and simple fractions),
// infers the unit from keywords in the remaining text, and converts hours to
// minutes. "No usable quantity" is a valid result ({0, unknown}), not an
// error: absence of structure lives in the value, never in a failure path.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"nestlog-reconcile/internal/domain"
)

// numberPattern matches a decimal ("4", "4.5", ".5") optionally followed by
// a fraction denominator ("1/2", "1 / 2").
var numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?|\.\d+)(?:\s*/\s*(\d+(?:\.\d+)?|\.\d+))?`)

// Normalize parses text into an amount and unit. Deterministic and
// side-effect-free; it never fails.
func Normalize(text string) domain.NormalizedQuantity {
	m := numberPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return domain.NormalizedQuantity{Amount: 0, Unit: domain.UnitUnknown}
	}

	amount, _ := strconv.ParseFloat(text[m[2]:m[3]], 64)
	if m[4] >= 0 {
		denominator, _ := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if denominator != 0 {
			amount = amount / denominator
		}
	}

	unit := inferUnit(text[m[1]:])
	if unit == domain.UnitHour {
		return domain.NormalizedQuantity{Amount: amount * 60, Unit: domain.UnitMinute}
	}
	return domain.NormalizedQuantity{Amount: amount, Unit: unit}
}

// inferUnit scans the text after the number for unit keywords,
// case-insensitively, first recognized keyword wins.
func inferUnit(rest string) domain.Unit {
	tokens := strings.FieldsFunc(strings.ToLower(rest), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		switch {
		case tok == "oz" || tok == "ounce" || tok == "ounces":
			return domain.UnitOunce
		case tok == "ml" || strings.HasPrefix(tok, "milliliter") || strings.HasPrefix(tok, "millilitre"):
			return domain.UnitMilliliter
		case strings.HasPrefix(tok, "min"):
			return domain.UnitMinute
		case tok == "h" || tok == "hr" || tok == "hrs" || strings.HasPrefix(tok, "hour"):
			return domain.UnitHour
		}
	}
	return domain.UnitUnknown
}
