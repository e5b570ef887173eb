package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedMultiple(t *testing.T) {
	tests := []struct {
		name       string
		multiplier float64
		stake      int64
		want       int64
	}{
		{"dobra o stake", 2.0, 100, 200},
		{"odd fracionária", 1.85, 100, 185},
		{"stake alto", 2.0, 1_000_000, 2_000_000},
		{"multiplicador zero", 0, 100, 0},
		{"multiplicador negativo", -1, 100, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := FixedMultiple(tc.multiplier)
			got := policy(Bet{AmountCents: tc.stake}, Outcome{}, Pool{})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParimutuel(t *testing.T) {
	policy := Parimutuel()

	tests := []struct {
		name  string
		stake int64
		pool  Pool
		want  int64
	}{
		{"rateio meio a meio", 100, Pool{WinningCents: 200, LosingCents: 100}, 150},
		{"único vencedor leva o pool", 100, Pool{WinningCents: 100, LosingCents: 300}, 400},
		{"sem perdedores devolve o stake", 100, Pool{WinningCents: 100, LosingCents: 0}, 100},
		{"pool vencedor vazio devolve o stake", 100, Pool{}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := policy(Bet{AmountCents: tc.stake}, Outcome{}, tc.pool)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPolicyFor(t *testing.T) {
	win := Bet{AmountCents: 100}

	fixed := PolicyFor("fixed", 3.0)
	assert.Equal(t, int64(300), fixed(win, Outcome{}, Pool{}))

	pari := PolicyFor("parimutuel", 0)
	assert.Equal(t, int64(150), pari(win, Outcome{}, Pool{WinningCents: 200, LosingCents: 100}))

	// nome desconhecido cai no múltiplo fixo
	unknown := PolicyFor("whatever", 2.0)
	assert.Equal(t, int64(200), unknown(win, Outcome{}, Pool{}))
}
