package calculator

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func balancesOf(m map[string]string) Balances {
	b := make(Balances, len(m))
	for id, s := range m {
		b[id] = d(s)
	}
	return b
}

func TestMinimizeTransactions(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]string
		want     []Transfer
	}{
		{
			name:     "one creditor two debtors",
			balances: map[string]string{"A": "20", "B": "-10", "C": "-10"},
			want: []Transfer{
				{From: "B", To: "A", Amount: d("10")},
				{From: "C", To: "A", Amount: d("10")},
			},
		},
		{
			name:     "already settled",
			balances: map[string]string{"A": "0", "B": "0"},
			want:     nil,
		},
		{
			name:     "ties broken by member id",
			balances: map[string]string{"d": "-10", "c": "-10", "b": "10", "a": "10"},
			want: []Transfer{
				{From: "c", To: "a", Amount: d("10")},
				{From: "d", To: "b", Amount: d("10")},
			},
		},
		{
			name:     "largest first",
			balances: map[string]string{"A": "50", "B": "-20", "C": "-30", "D": "0"},
			want: []Transfer{
				{From: "C", To: "A", Amount: d("30")},
				{From: "B", To: "A", Amount: d("20")},
			},
		},
		{
			name:     "fractional amounts stay exact",
			balances: map[string]string{"A": "6.67", "B": "-3.33", "C": "-3.34"},
			want: []Transfer{
				{From: "C", To: "A", Amount: d("3.34")},
				{From: "B", To: "A", Amount: d("3.33")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinimizeTransactions(balancesOf(tt.balances))
			if err != nil {
				t.Fatalf("MinimizeTransactions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d transfers %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMinimizeTransactions_Unbalanced(t *testing.T) {
	_, err := MinimizeTransactions(balancesOf(map[string]string{"A": "20", "B": "-10"}))
	if !errors.Is(err, ErrUnbalancedLedger) {
		t.Fatalf("expected ErrUnbalancedLedger, got %v", err)
	}
	var imbalance *ImbalanceError
	if !errors.As(err, &imbalance) {
		t.Fatalf("expected ImbalanceError, got %T", err)
	}
	if !imbalance.Imbalance.Equal(d("10")) {
		t.Errorf("imbalance = %s, want 10", imbalance.Imbalance)
	}
}

func TestMinimizeTransactions_ResidualWithinTolerance(t *testing.T) {
	got, err := MinimizeTransactions(balancesOf(map[string]string{"A": "10.003", "B": "-10"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].From != "B" || got[0].To != "A" || !got[0].Amount.Equal(d("10")) {
		t.Errorf("got %+v, want single B->A 10", got)
	}
}

func TestMinimizeTransactions_SettlesEverything(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 100; round++ {
		group := randomGroup(rng, 2+rng.Intn(10), 1+rng.Intn(25))
		balances := ComputeBalances(group)

		transfers, err := MinimizeTransactions(balances)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if len(transfers) > len(group.Members)-1 {
			t.Errorf("round %d: %d transfers for %d members", round, len(transfers), len(group.Members))
		}

		remaining := make(Balances, len(balances))
		for id, amount := range balances {
			remaining[id] = amount
		}
		for _, tr := range transfers {
			if tr.From == tr.To {
				t.Fatalf("round %d: self transfer %+v", round, tr)
			}
			if !tr.Amount.IsPositive() {
				t.Fatalf("round %d: non-positive transfer %+v", round, tr)
			}
			remaining[tr.From] = remaining[tr.From].Add(tr.Amount)
			remaining[tr.To] = remaining[tr.To].Sub(tr.Amount)
		}
		for id, amount := range remaining {
			if !amount.IsZero() {
				t.Errorf("round %d: member %s left with %s", round, id, amount)
			}
		}
	}
}

func TestMinimizeTransactions_Deterministic(t *testing.T) {
	balances := balancesOf(map[string]string{
		"m1": "15", "m2": "15", "m3": "-10", "m4": "-10", "m5": "-10",
	})

	first, err := MinimizeTransactions(balances)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := MinimizeTransactions(balances)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(transferStrings(first), transferStrings(again)) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func transferStrings(ts []Transfer) []string {
	out := make([]string, len(ts))
	for i, tr := range ts {
		out[i] = tr.From + ">" + tr.To + ":" + tr.Amount.StringFixed(2)
	}
	return out
}

func TestMinimizeTransactions_ZeroSum(t *testing.T) {
	// A three-party cycle nets out to nothing.
	balances := Balances{"A": decimal.Zero, "B": decimal.Zero, "C": decimal.Zero}
	got, err := MinimizeTransactions(balances)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no transfers, got %v", got)
	}
}
