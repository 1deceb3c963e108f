package price

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol prefixes every canonical price
const Symbol = "₹"

// RangePolicy decides which bound of a price range is advertised
type RangePolicy string

const (
	RangeMin      RangePolicy = "min"
	RangeMax      RangePolicy = "max"
	RangeMidpoint RangePolicy = "midpoint"
)

// ParseRangePolicy validates a policy name, defaulting to RangeMin for ""
func ParseRangePolicy(s string) (RangePolicy, error) {
	switch RangePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RangeMin:
		return RangeMin, nil
	case RangeMax:
		return RangeMax, nil
	case RangeMidpoint:
		return RangeMidpoint, nil
	}
	return "", fmt.Errorf("unknown range policy %q (want min, max or midpoint)", s)
}

var (
	qualifierPattern = regexp.MustCompile(`(?i)\b(?:starting\s+(?:at|from)|as\s+low\s+as|from)\b`)
	currencyPattern  = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*(\d[\d,]*(?:\.\d+)?)`)
	numberPattern    = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	// bare upper bound following a currency amount, as in "₹499 - 999"
	rangeTailPattern = regexp.MustCompile(`(?i)^\s*(?:-|–|—|to)\s*(\d[\d,]*(?:\.\d+)?)`)
	canonicalPattern = regexp.MustCompile(`^₹\d{1,3}(?:,\d{3})*$`)
)

// Normalizer turns price-like text into one canonical rupee string
type Normalizer struct {
	policy RangePolicy
}

// NewNormalizer creates a normalizer using the given range policy
func NewNormalizer(policy RangePolicy) *Normalizer {
	if policy == "" {
		policy = RangeMin
	}
	return &Normalizer{policy: policy}
}

var defaultNormalizer = NewNormalizer(RangeMin)

// Normalize normalizes with the default (lower bound) range policy
func Normalize(raw string) (string, bool) {
	return defaultNormalizer.Normalize(raw)
}

// Canonicalize is Normalize restricted to results in canonical form
func Canonicalize(raw string) (string, bool) {
	return defaultNormalizer.Canonicalize(raw)
}

// Policy returns the configured range policy
func (n *Normalizer) Policy() RangePolicy {
	return n.policy
}

// Normalize returns the canonical price for raw.
// Blank input yields ("", false). Input without a qualifying amount is
// returned trimmed and unchanged.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	value, _, ok := n.normalize(raw)
	return value, ok
}

// Canonicalize returns a value only when an amount was actually resolved
func (n *Normalizer) Canonicalize(raw string) (string, bool) {
	value, canonical, ok := n.normalize(raw)
	if !ok || !canonical {
		return "", false
	}
	return value, true
}

func (n *Normalizer) normalize(raw string) (string, bool, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false, false
	}

	text := qualifierPattern.ReplaceAllString(trimmed, " ")

	var amounts []decimal.Decimal
	for _, loc := range currencyPattern.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := parseAmount(text[loc[2]:loc[3]]); ok {
			amounts = append(amounts, d)
		}
		if tail := rangeTailPattern.FindStringSubmatch(text[loc[1]:]); tail != nil {
			if d, ok := parseAmount(tail[1]); ok {
				amounts = append(amounts, d)
			}
		}
	}
	if len(amounts) == 0 {
		for _, m := range numberPattern.FindAllString(text, -1) {
			if d, ok := parseAmount(m); ok {
				amounts = append(amounts, d)
			}
		}
	}
	if len(amounts) == 0 {
		return trimmed, false, true
	}

	return format(n.pick(amounts)), true, true
}

func (n *Normalizer) pick(amounts []decimal.Decimal) decimal.Decimal {
	lo, hi := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		if a.LessThan(lo) {
			lo = a
		}
		if a.GreaterThan(hi) {
			hi = a
		}
	}

	switch n.policy {
	case RangeMax:
		return hi
	case RangeMidpoint:
		return lo.Add(hi).Div(decimal.NewFromInt(2))
	default:
		return lo
	}
}

// parseAmount parses a matched numeric substring, rejecting values with
// fewer than two significant integer digits (ratings, counts, stray "1"s).
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimRight(s, ",")
	plain := strings.ReplaceAll(s, ",", "")
	if plain == "" {
		return decimal.Zero, false
	}

	intPart := plain
	if i := strings.IndexByte(plain, '.'); i >= 0 {
		intPart = plain[:i]
	}
	if len(strings.TrimLeft(intPart, "0")) < 2 {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(plain)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// format renders an amount as whole rupees with comma thousands grouping.
// Paise are dropped.
func format(d decimal.Decimal) string {
	return Symbol + groupThousands(d.Abs().Truncate(0).String())
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// IsCanonical reports whether s is already a canonical price string:
// ₹ followed by comma-grouped whole rupees
func IsCanonical(s string) bool {
	return canonicalPattern.MatchString(s)
}

// Amount extracts the numeric value of a canonical (or price-like) string
func Amount(s string) (decimal.Decimal, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimRight(m, ","), ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
