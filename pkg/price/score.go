package price

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Base scores for where a candidate was found. Selectors naming a price are
// trusted most, free-text regex hits least.
const (
	BaseStructured    = 5
	BasePriceSelector = 4
	BaseSelector      = 2
	BaseText          = 0
)

var strongKeywords = []string{"price", "mrp", "offer", "deal", "you pay", "our price", "special price"}

var weakSignals = []string{"₹", "rs"}

// Score estimates how likely snippet is the product price rather than noise
func Score(snippet string, base int) int {
	return base + keywordScore(snippet) + digitBonus(snippet)
}

func keywordScore(snippet string) int {
	t := strings.ToLower(snippet)
	score := 0
	for _, kw := range strongKeywords {
		if strings.Contains(t, kw) {
			score += 2
		}
	}
	for _, kw := range weakSignals {
		if strings.Contains(t, kw) {
			score++
		}
	}
	return score
}

// digitBonus rewards amounts of four or more digits
func digitBonus(value string) int {
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits >= 4 {
		return 1
	}
	return 0
}

// Candidate is a price-like snippet with the trust of the place it came from.
// Context, when set, is the surrounding text searched for keywords; the
// value and its digit count always come from Text.
type Candidate struct {
	Text    string
	Context string
	Base    int
}

func (c Candidate) score() int {
	keywords := c.Context
	if keywords == "" {
		keywords = c.Text
	}
	return c.Base + keywordScore(keywords) + digitBonus(c.Text)
}

// Choice is the aggregated evidence for one normalized value
type Choice struct {
	Value     string
	Score     int
	Count     int
	Magnitude decimal.Decimal
}

// Rank groups candidates by normalized value and orders the groups by
// best score, then frequency, then numeric magnitude (higher wins ties).
// Snippets that do not resolve to a canonical amount are dropped.
func (n *Normalizer) Rank(candidates []Candidate) []Choice {
	byValue := make(map[string]*Choice)
	var order []string

	for _, c := range candidates {
		value, ok := n.Canonicalize(c.Text)
		if !ok {
			continue
		}
		score := c.score()

		ch, exists := byValue[value]
		if !exists {
			magnitude, _ := Amount(value)
			ch = &Choice{Value: value, Score: score, Magnitude: magnitude}
			byValue[value] = ch
			order = append(order, value)
		}
		ch.Count++
		if score > ch.Score {
			ch.Score = score
		}
	}

	choices := make([]Choice, 0, len(order))
	for _, v := range order {
		choices = append(choices, *byValue[v])
	}

	sort.SliceStable(choices, func(i, j int) bool {
		a, b := choices[i], choices[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Magnitude.GreaterThan(b.Magnitude)
	})
	return choices
}

// Select returns the most defensible canonical price among candidates
func (n *Normalizer) Select(candidates []Candidate) (string, bool) {
	choices := n.Rank(candidates)
	if len(choices) == 0 {
		return "", false
	}
	return choices[0].Value, true
}

// Select picks with the default normalizer
func Select(candidates []Candidate) (string, bool) {
	return defaultNormalizer.Select(candidates)
}
