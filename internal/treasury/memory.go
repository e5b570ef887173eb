package treasury

import (
	"context"
	"sync"
)

// Memory é um tesouro em memória: credita transferências em saldos por
// usuário. Usado em env local e nos testes do ledger; também serve de
// referência da semântica esperada de um Payer.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64

	// FailNext força a próxima transferência a falhar (testes de rollback).
	FailNext error
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

func (m *Memory) Pay(_ context.Context, to string, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}

	m.balances[to] += amountCents
	return nil
}

// BalanceOf devolve o total já transferido para um usuário.
func (m *Memory) BalanceOf(user string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[user]
}
