package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCanAfford(t *testing.T) {
	balances := Balances{currency.Dollars: 500, currency.Diamonds: 3}
	tests := []struct {
		name string
		req  map[currency.Code]int
		want bool
	}{
		{name: "nil requirements", req: nil, want: true},
		{name: "empty requirements", req: map[currency.Code]int{}, want: true},
		{name: "exact balance", req: map[currency.Code]int{currency.Dollars: 500}, want: true},
		{name: "one short", req: map[currency.Code]int{currency.Dollars: 501}, want: false},
		{name: "absent currency", req: map[currency.Code]int{currency.Yen: 1}, want: false},
		{name: "mixed", req: map[currency.Code]int{currency.Dollars: 100, currency.Diamonds: 4}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAfford(balances, tt.req); got != tt.want {
				t.Fatalf("CanAfford() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpendInsufficientFundsLeavesBalances(t *testing.T) {
	balances := Balances{currency.Dollars: 500, currency.Diamonds: 10}

	entries, err := Spend(balances, map[currency.Code]int{currency.Diamonds: 5, currency.Dollars: 600}, Memo{Type: TypeChoiceCost}, fixedNow)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want insufficient funds", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
	if balances[currency.Dollars] != 500 || balances[currency.Diamonds] != 10 {
		t.Fatalf("balances mutated: %v", balances)
	}
}

func TestSpendRejectsNonPositiveAmount(t *testing.T) {
	balances := Balances{currency.Dollars: 500}

	_, err := Spend(balances, map[currency.Code]int{currency.Dollars: 0}, Memo{}, fixedNow)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want invalid amount", err)
	}
	if balances[currency.Dollars] != 500 {
		t.Fatalf("balance = %d, want 500", balances[currency.Dollars])
	}
}

func TestSpendDebitsEveryCurrencyInOrder(t *testing.T) {
	balances := Balances{currency.Dollars: 500, currency.Diamonds: 10}
	memo := Memo{UserID: "u1", Type: TypeChoiceCost, Description: "bribe", StoryNodeID: "n1"}

	entries, err := Spend(balances, map[currency.Code]int{currency.Dollars: 200, currency.Diamonds: 1}, memo, fixedNow)
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].FromCurrency != currency.Diamonds || entries[1].FromCurrency != currency.Dollars {
		t.Fatalf("entry order = %q, %q", entries[0].FromCurrency, entries[1].FromCurrency)
	}
	if entries[1].Amount != 200 || entries[1].Signed() != -200 {
		t.Fatalf("dollar entry = %+v", entries[1])
	}
	if entries[0].StoryNodeID != "n1" || entries[0].UserID != "u1" || !entries[0].At.Equal(fixedNow) {
		t.Fatalf("memo not copied: %+v", entries[0])
	}
	if balances[currency.Dollars] != 300 || balances[currency.Diamonds] != 9 {
		t.Fatalf("balances = %v", balances)
	}
}

func TestCredit(t *testing.T) {
	balances := Balances{}

	if _, err := Credit(balances, currency.Euros, -5, Memo{}, fixedNow); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want invalid amount", err)
	}
	entry, err := Credit(balances, currency.Euros, 100, Memo{Type: TypeLevelUp}, fixedNow)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if entry.ToCurrency != currency.Euros || entry.Signed() != 100 || entry.Type != TypeLevelUp {
		t.Fatalf("entry = %+v", entry)
	}
	if balances[currency.Euros] != 100 {
		t.Fatalf("balance = %d, want 100", balances[currency.Euros])
	}
}

func TestNetMatchesBalanceChanges(t *testing.T) {
	start := Balances{currency.Dollars: 1000, currency.Yen: 50}
	balances := start.Clone()
	var all []Entry

	steps := []func() ([]Entry, error){
		func() ([]Entry, error) {
			e, err := Credit(balances, currency.Dollars, 1500, Memo{}, fixedNow)
			return []Entry{e}, err
		},
		func() ([]Entry, error) {
			return Spend(balances, map[currency.Code]int{currency.Dollars: 700, currency.Yen: 50}, Memo{}, fixedNow)
		},
		func() ([]Entry, error) {
			return Spend(balances, map[currency.Code]int{currency.Yen: 1}, Memo{}, fixedNow)
		},
		func() ([]Entry, error) {
			e, err := Credit(balances, currency.Pounds, 20, Memo{}, fixedNow)
			return []Entry{e}, err
		},
	}
	for _, step := range steps {
		entries, err := step()
		if err != nil {
			continue
		}
		all = append(all, entries...)
	}

	net := Net(all)
	for _, code := range currency.Known {
		if got, want := start[code]+net[code], balances[code]; got != want {
			t.Fatalf("%s: start+ledger = %d, balance = %d", code, got, want)
		}
	}
}

func TestOpeningAccountsForStartingWallet(t *testing.T) {
	balances := Balances(currency.DefaultBalances())
	balances[currency.Yen] = 0

	entries := Opening("u1", balances, fixedNow)
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	net := Net(entries)
	for _, code := range []currency.Code{currency.Diamonds, currency.Dollars, currency.Pounds, currency.Euros} {
		if net[code] != balances[code] {
			t.Fatalf("%s: ledger = %d, balance = %d", code, net[code], balances[code])
		}
	}
	if entries[0].Type != TypeOpening || entries[0].UserID != "u1" {
		t.Fatalf("entry = %+v", entries[0])
	}
}
