// Package currency defines the symbolic currency codes of the game economy.
package currency

import (
	"sort"
	"strings"
)

// Code is a currency symbol. The enumeration is open: unknown symbols are
// carried through ledgers unchanged, they just have no base reward.
type Code string

const (
	Diamonds Code = "💎"
	Dollars  Code = "💵"
	Pounds   Code = "💷"
	Euros    Code = "💶"
	Yen      Code = "💴"
)

// Default is the currency used when a reward names none.
const Default = Dollars

// Known lists the game's five currencies in display order.
var Known = []Code{Diamonds, Dollars, Pounds, Euros, Yen}

var names = map[string]Code{
	"diamonds": Diamonds,
	"diamond":  Diamonds,
	"dollars":  Dollars,
	"dollar":   Dollars,
	"pounds":   Pounds,
	"pound":    Pounds,
	"euros":    Euros,
	"euro":     Euros,
	"yen":      Yen,
}

var baseRewards = map[Code]int{
	Diamonds: 1,
	Dollars:  1500,
	Pounds:   1400,
	Euros:    1450,
	Yen:      150000,
}

// Parse accepts either a currency symbol or one of the English currency
// names. Unrecognized non-empty values are returned as-is.
func Parse(value string) (Code, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	if code, ok := names[strings.ToLower(trimmed)]; ok {
		return code, true
	}
	return Code(trimmed), true
}

// BaseReward returns the reference reward used for difficulty inference.
func BaseReward(code Code) (int, bool) {
	base, ok := baseRewards[code]
	return base, ok
}

// DefaultBalances returns the starting wallet of a new player.
func DefaultBalances() map[Code]int {
	return map[Code]int{
		Diamonds: 500,
		Dollars:  5000,
		Pounds:   5000,
		Euros:    5000,
		Yen:      5000,
	}
}

// Sorted returns the keys of m in a stable order: known currencies first in
// display order, then any other codes lexically.
func Sorted[V any](m map[Code]V) []Code {
	codes := make([]Code, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	rank := func(code Code) int {
		for i, known := range Known {
			if known == code {
				return i
			}
		}
		return len(Known)
	}
	sort.Slice(codes, func(i, j int) bool {
		ri, rj := rank(codes[i]), rank(codes[j])
		if ri != rj {
			return ri < rj
		}
		return codes[i] < codes[j]
	})
	return codes
}
