package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePayer acumula transferências por destinatário; FailNext força a
// próxima a falhar (testes de rollback).
type fakePayer struct {
	mu       sync.Mutex
	balances map[string]int64
	FailNext error
}

func newFakePayer() *fakePayer {
	return &fakePayer{balances: make(map[string]int64)}
}

func (p *fakePayer) Pay(_ context.Context, to string, amountCents int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext != nil {
		err := p.FailNext
		p.FailNext = nil
		return err
	}
	p.balances[to] += amountCents
	return nil
}

func (p *fakePayer) balanceOf(user string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[user]
}

const owner = "owner-1"

func newLedger(t *testing.T, opts ...func(*Config)) (*Ledger, *fakePayer) {
	t.Helper()
	cfg := Config{OwnerID: owner, Policy: FixedMultiple(2.0)}
	for _, o := range opts {
		o(&cfg)
	}
	payer := newFakePayer()
	return New(cfg, payer), payer
}

func place(t *testing.T, l *Ledger, user, category, choice string, cents int64) Bet {
	t.Helper()
	b, err := l.PlaceBet(context.Background(), PlaceBetInput{
		User:        user,
		Category:    category,
		Choice:      choice,
		AmountCents: cents,
	})
	require.NoError(t, err)
	return b
}

func TestPlaceBetCreditsCustody(t *testing.T) {
	l, _ := newLedger(t)

	b := place(t, l, "user1", "winner", "Charles", 100)

	assert.Equal(t, int64(0), b.ID)
	assert.Equal(t, "user1", b.User)
	assert.Equal(t, "Charles", b.Choice)
	assert.False(t, b.Settled)
	assert.Equal(t, int64(0), b.PayoutCents)

	assert.Equal(t, int64(100), l.Balance())
	assert.Equal(t, int64(100), l.Outstanding())
	assert.Len(t, l.GetAllBets(), 1)

	b2 := place(t, l, "user2", "winner", "Diana", 50)
	assert.Equal(t, int64(1), b2.ID)
	assert.Equal(t, int64(150), l.Balance())
}

func TestPlaceBetValidation(t *testing.T) {
	l, _ := newLedger(t)

	tests := []struct {
		name string
		in   PlaceBetInput
		want error
	}{
		{"zero amount", PlaceBetInput{User: "u", Category: "c", Choice: "x", AmountCents: 0}, ErrInvalidAmount},
		{"negative amount", PlaceBetInput{User: "u", Category: "c", Choice: "x", AmountCents: -5}, ErrInvalidAmount},
		{"empty category", PlaceBetInput{User: "u", Choice: "x", AmountCents: 10}, ErrInvalidChoice},
		{"empty choice", PlaceBetInput{User: "u", Category: "c", AmountCents: 10}, ErrInvalidChoice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.PlaceBet(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// rejeições não deixam rastro
	assert.Empty(t, l.GetAllBets())
	assert.Equal(t, int64(0), l.Balance())
}

func TestPlaceBetSimpleShim(t *testing.T) {
	l, _ := newLedger(t)

	b, err := l.PlaceBetSimple(context.Background(), "user1", "Team A", 100)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, b.Category)
	assert.Equal(t, "Team A", b.Choice)

	_, err = l.PlaceBetSimple(context.Background(), "user1", "", 100)
	require.ErrorIs(t, err, ErrInvalidChoice)
}

func TestGetBetsRoundTrip(t *testing.T) {
	l, _ := newLedger(t)

	place(t, l, "user1", "winner", "a", 10)
	place(t, l, "user2", "winner", "b", 20)
	place(t, l, "user1", "winner", "c", 30)
	place(t, l, "user1", "top-score", "d", 40)

	bets := l.GetBets("user1")
	require.Len(t, bets, 3)
	assert.Equal(t, []int64{0, 2, 3}, []int64{bets[0].ID, bets[1].ID, bets[2].ID})
	assert.Equal(t, "a", bets[0].Choice)
	assert.Equal(t, "c", bets[1].Choice)
	assert.Equal(t, "d", bets[2].Choice)

	assert.Empty(t, l.GetBets("nobody"))
	assert.Len(t, l.GetAllBets(), 4)
}

func TestSnapshotIsolation(t *testing.T) {
	l, _ := newLedger(t)
	place(t, l, "user1", "winner", "a", 10)

	snap := l.GetAllBets()
	snap[0].Settled = true
	snap[0].Choice = "mutated"

	fresh, err := l.GetBet(0)
	require.NoError(t, err)
	assert.False(t, fresh.Settled)
	assert.Equal(t, "a", fresh.Choice)
}

func TestSetOutcomeAuthorization(t *testing.T) {
	l, _ := newLedger(t)

	_, err := l.SetOutcome("user1", "winner", "Charles", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, ok := l.OutcomeFor("winner")
	assert.False(t, ok)

	out, err := l.SetOutcome(owner, "winner", "Charles", "7")
	require.NoError(t, err)
	assert.Equal(t, "Charles", out.Winner)
	assert.Equal(t, "7", out.WinnerRef)

	// sobrescrita silenciosa: só liquidações futuras leem o novo valor
	_, err = l.SetOutcome(owner, "winner", "Diana", "")
	require.NoError(t, err)
	got, ok := l.OutcomeFor("winner")
	require.True(t, ok)
	assert.Equal(t, "Diana", got.Winner)
}

func TestSettleBetWin(t *testing.T) {
	l, payer := newLedger(t)

	require.NoError(t, l.Fund(context.Background(), owner, 100))
	place(t, l, "user1", "winner", "Charles", 100)
	_, err := l.SetOutcome(owner, "winner", "Charles", "")
	require.NoError(t, err)

	b, err := l.SettleBet(context.Background(), 0, "winner")
	require.NoError(t, err)

	assert.True(t, b.Settled)
	assert.Equal(t, int64(200), b.PayoutCents)
	assert.Equal(t, int64(200), payer.balanceOf("user1"))
	assert.Equal(t, int64(0), l.Balance())
	assert.Equal(t, int64(0), l.Outstanding())
}

func TestSettleBetLose(t *testing.T) {
	l, payer := newLedger(t)

	place(t, l, "user1", "winner", "Charles", 100)
	_, err := l.SetOutcome(owner, "winner", "Diana", "")
	require.NoError(t, err)

	b, err := l.SettleBet(context.Background(), 0, "winner")
	require.NoError(t, err)

	// stake perdido fica na custódia
	assert.True(t, b.Settled)
	assert.Equal(t, int64(0), b.PayoutCents)
	assert.Equal(t, int64(0), payer.balanceOf("user1"))
	assert.Equal(t, int64(100), l.Balance())
	assert.Equal(t, int64(0), l.Outstanding())
	assert.Equal(t, int64(100), l.Available())
}

func TestSettleBetRejections(t *testing.T) {
	l, _ := newLedger(t)
	place(t, l, "user1", "winner", "Charles", 100)

	_, err := l.SettleBet(context.Background(), 99, "winner")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.ErrorIs(t, err, ErrOutcomeNotSet)

	b, err := l.GetBet(0)
	require.NoError(t, err)
	assert.False(t, b.Settled)
}

func TestSettleBetBoundToOwnCategory(t *testing.T) {
	l, payer := newLedger(t)

	require.NoError(t, l.Fund(context.Background(), owner, 100))
	// mesma escolha, mercado diferente do resultado declarado
	place(t, l, "user1", "top-score", "Charles", 100)
	_, err := l.SetOutcome(owner, "winner", "Charles", "")
	require.NoError(t, err)

	// liquidar contra mercado alheio não extrai payout
	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.ErrorIs(t, err, ErrNotFound)

	b, gerr := l.GetBet(0)
	require.NoError(t, gerr)
	assert.False(t, b.Settled)
	assert.Equal(t, int64(0), payer.balanceOf("user1"))
	assert.Equal(t, int64(200), l.Balance())
	assert.Equal(t, int64(100), l.Outstanding())

	// nem descarta o stake de terceiros como derrota em outro mercado
	_, err = l.SetOutcome(owner, "top-score", "Diana", "")
	require.NoError(t, err)
	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.ErrorIs(t, err, ErrNotFound)

	// contra a própria categoria segue funcionando
	b, err = l.SettleBet(context.Background(), 0, "top-score")
	require.NoError(t, err)
	assert.True(t, b.Settled)
	assert.Equal(t, int64(0), b.PayoutCents)
}

func TestSettleBetIdempotentRejection(t *testing.T) {
	l, payer := newLedger(t)

	place(t, l, "user1", "winner", "Charles", 100)
	_, err := l.SetOutcome(owner, "winner", "Diana", "")
	require.NoError(t, err)

	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.NoError(t, err)

	before := l.GetAllBets()
	held, pending := l.Balance(), l.Outstanding()

	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.ErrorIs(t, err, ErrAlreadySettled)

	// a segunda chamada não move nada
	assert.Equal(t, before, l.GetAllBets())
	assert.Equal(t, held, l.Balance())
	assert.Equal(t, pending, l.Outstanding())
	assert.Equal(t, int64(0), payer.balanceOf("user1"))
}

func TestSettleRollbackOnTransferFailure(t *testing.T) {
	l, payer := newLedger(t)

	require.NoError(t, l.Fund(context.Background(), owner, 100))
	place(t, l, "user1", "winner", "Charles", 100)
	_, err := l.SetOutcome(owner, "winner", "Charles", "")
	require.NoError(t, err)

	payer.FailNext = errors.New("treasury unavailable")
	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadySettled)

	// mutação inteira desfeita: aposta segue aberta, custódia intacta
	b, gerr := l.GetBet(0)
	require.NoError(t, gerr)
	assert.False(t, b.Settled)
	assert.Equal(t, int64(0), b.PayoutCents)
	assert.Equal(t, int64(200), l.Balance())
	assert.Equal(t, int64(100), l.Outstanding())

	// retry do caller completa normalmente
	b, err = l.SettleBet(context.Background(), 0, "winner")
	require.NoError(t, err)
	assert.True(t, b.Settled)
	assert.Equal(t, int64(200), payer.balanceOf("user1"))
}

func TestSettleBetDirect(t *testing.T) {
	l, payer := newLedger(t)

	require.NoError(t, l.Fund(context.Background(), owner, 200))
	place(t, l, "user1", "winner", "Charles", 100)

	_, err := l.SettleBetDirect(context.Background(), "user2", 0, 150)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.SettleBetDirect(context.Background(), owner, 0, -1)
	require.ErrorIs(t, err, ErrInvalidAmount)

	// payout não pode exceder o que a custódia cobre
	_, err = l.SettleBetDirect(context.Background(), owner, 0, 301)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	b, err := l.SettleBetDirect(context.Background(), owner, 0, 150)
	require.NoError(t, err)
	assert.True(t, b.Settled)
	assert.Equal(t, int64(150), b.PayoutCents)
	assert.Equal(t, int64(150), payer.balanceOf("user1"))
	assert.Equal(t, int64(150), l.Balance())

	_, err = l.SettleBetDirect(context.Background(), owner, 0, 10)
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestSettleConservesOpenObligations(t *testing.T) {
	l, _ := newLedger(t, func(c *Config) { c.Policy = Parimutuel() })

	// dois vencedores e um perdedor na mesma categoria
	place(t, l, "user1", "winner", "Charles", 100)
	place(t, l, "user2", "winner", "Charles", 100)
	place(t, l, "user3", "winner", "Diana", 100)
	_, err := l.SetOutcome(owner, "winner", "Charles", "")
	require.NoError(t, err)

	// parimutuel pagaria 150 ao user1, mas isso furaria a cobertura dos
	// stakes ainda abertos (300 - 150 < 200): rejeita até liquidar o perdedor
	_, err = l.SettleBet(context.Background(), 0, "winner")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = l.SettleBet(context.Background(), 2, "winner")
	require.NoError(t, err)

	b, err := l.SettleBet(context.Background(), 0, "winner")
	require.NoError(t, err)
	assert.Equal(t, int64(150), b.PayoutCents)

	b, err = l.SettleBet(context.Background(), 1, "winner")
	require.NoError(t, err)
	assert.Equal(t, int64(150), b.PayoutCents)

	assert.Equal(t, int64(0), l.Balance())
	assert.GreaterOrEqual(t, l.Balance(), l.Outstanding())
}

func TestWithdrawAuthorizationAndLimits(t *testing.T) {
	l, payer := newLedger(t)

	place(t, l, "user1", "winner", "Charles", 100)
	require.NoError(t, l.Fund(context.Background(), owner, 50))

	err := l.Withdraw(context.Background(), "user1", 10)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(150), l.Balance())

	err = l.Withdraw(context.Background(), owner, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	// modo safe: só o saldo não comprometido (150 - 100 = 50)
	err = l.Withdraw(context.Background(), owner, 51)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, l.Withdraw(context.Background(), owner, 50))
	assert.Equal(t, int64(100), l.Balance())
	assert.Equal(t, int64(50), payer.balanceOf(owner))
}

func TestWithdrawLegacyMode(t *testing.T) {
	l, payer := newLedger(t, func(c *Config) { c.WithdrawMode = WithdrawLegacy })

	place(t, l, "user1", "winner", "Charles", 100)

	// modo legacy replica o contrato original: drena até o total held
	require.NoError(t, l.Withdraw(context.Background(), owner, 100))
	assert.Equal(t, int64(0), l.Balance())
	assert.Equal(t, int64(100), payer.balanceOf(owner))

	err := l.Withdraw(context.Background(), owner, 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestWithdrawRollbackOnTransferFailure(t *testing.T) {
	l, payer := newLedger(t)
	require.NoError(t, l.Fund(context.Background(), owner, 100))

	payer.FailNext = errors.New("treasury unavailable")
	err := l.Withdraw(context.Background(), owner, 100)
	require.Error(t, err)
	assert.Equal(t, int64(100), l.Balance())
}

func TestFund(t *testing.T) {
	l, _ := newLedger(t)

	require.ErrorIs(t, l.Fund(context.Background(), "user1", 10), ErrUnauthorized)
	require.ErrorIs(t, l.Fund(context.Background(), owner, 0), ErrInvalidAmount)

	require.NoError(t, l.Fund(context.Background(), owner, 75))
	assert.Equal(t, int64(75), l.Balance())
	assert.Equal(t, int64(75), l.Available())
}

// Cenário completo do round: depósito, liquidação discricionária com
// payout 2x e saque final zerando a custódia.
func TestScenarioFullRound(t *testing.T) {
	l, payer := newLedger(t)

	require.NoError(t, l.Fund(context.Background(), owner, 200))
	b, err := l.PlaceBetSimple(context.Background(), "user1", "Team A", 100)
	require.NoError(t, err)

	all := l.GetAllBets()
	require.Len(t, all, 1)
	assert.False(t, all[0].Settled)
	assert.Equal(t, int64(300), l.Balance())

	b, err = l.SettleBetDirect(context.Background(), owner, b.ID, 200)
	require.NoError(t, err)
	assert.True(t, b.Settled)
	assert.Equal(t, int64(200), b.PayoutCents)
	assert.Equal(t, int64(200), payer.balanceOf("user1"))
	assert.Equal(t, int64(100), l.Balance())

	require.NoError(t, l.Withdraw(context.Background(), owner, 100))
	assert.Equal(t, int64(0), l.Balance())
	assert.Equal(t, int64(100), payer.balanceOf(owner))
}

func TestRestoreRebuildsState(t *testing.T) {
	bets := []Bet{
		{ID: 0, User: "user1", Category: "winner", Choice: "a", AmountCents: 100, Settled: true, PayoutCents: 200},
		{ID: 1, User: "user2", Category: "winner", Choice: "b", AmountCents: 50},
	}
	outcomes := []Outcome{{Category: "winner", Winner: "a"}}

	payer := newFakePayer()
	l := Restore(Config{OwnerID: owner}, payer, bets, outcomes, 60)

	assert.Equal(t, int64(60), l.Balance())
	assert.Equal(t, int64(50), l.Outstanding())
	out, ok := l.OutcomeFor("winner")
	require.True(t, ok)
	assert.Equal(t, "a", out.Winner)

	// ids continuam sequenciais após o replay
	b, err := l.PlaceBet(context.Background(), PlaceBetInput{User: "user3", Category: "winner", Choice: "c", AmountCents: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.ID)
}
