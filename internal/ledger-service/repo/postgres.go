package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/private-betting-ledger/internal/ledger"
)

// Postgres é o diário persistente do ledger: apostas e movimentos de
// custódia. O estado autoritativo vive no core em memória; aqui fica a
// trilha de auditoria e a base de reconstrução (write-behind).
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// InsertBet grava a aposta recém-criada e o crédito de custódia
// correspondente na mesma transação.
func (p *Postgres) InsertBet(ctx context.Context, b ledger.Bet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id, user_id, category, choice, reference, param1, param2, aux, amount_cents, settled, payout_cents, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false,0,$10)`,
		b.ID, b.User, b.Category, b.Choice, b.Reference, b.Param1, b.Param2, pq.Array(b.Aux), b.AmountCents, b.PlacedAt,
	); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO custody_ledger (id, movement_type, amount_cents, bet_id, description)
		VALUES ($1,'CREDIT',$2,$3,$4)`,
		uuid.NewString(), b.AmountCents, b.ID, "place:"+b.Choice,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkSettled grava a transição terminal da aposta e, se houve payout,
// o débito de custódia na mesma transação.
func (p *Postgres) MarkSettled(ctx context.Context, b ledger.Bet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		UPDATE bets SET settled=true, payout_cents=$1, settled_at=$2 WHERE id=$3`,
		b.PayoutCents, b.SettledAt, b.ID,
	); err != nil {
		return err
	}

	if b.PayoutCents > 0 {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO custody_ledger (id, movement_type, amount_cents, bet_id, description)
			VALUES ($1,'PAYOUT',$2,$3,$4)`,
			uuid.NewString(), b.PayoutCents, b.ID, "settle",
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// InsertOutcome registra/atualiza o resultado declarado da categoria.
func (p *Postgres) InsertOutcome(ctx context.Context, o ledger.Outcome) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO outcomes (category, winner, winner_ref, declared_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (category) DO UPDATE SET
		  winner     = EXCLUDED.winner,
		  winner_ref = EXCLUDED.winner_ref,
		  declared_at= EXCLUDED.declared_at`,
		o.Category, o.Winner, o.WinnerRef, o.DeclaredAt,
	)
	return err
}

// InsertMovement grava um movimento avulso (FUND, WITHDRAW).
func (p *Postgres) InsertMovement(ctx context.Context, m Movement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO custody_ledger (id, movement_type, amount_cents, bet_id, description)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.Type, m.AmountCents, m.BetID, m.Description,
	)
	return err
}

// LoadBets devolve todas as apostas persistidas em ordem de id
// (usado para reconciliação/replay no boot).
func (p *Postgres) LoadBets(ctx context.Context) ([]ledger.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, category, choice, reference, param1, param2, aux, amount_cents, settled, payout_cents, placed_at, settled_at
		FROM bets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Bet
	for rows.Next() {
		var b ledger.Bet
		var settledAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.User, &b.Category, &b.Choice, &b.Reference, &b.Param1, &b.Param2,
			pq.Array(&b.Aux), &b.AmountCents, &b.Settled, &b.PayoutCents, &b.PlacedAt, &settledAt); err != nil {
			return nil, err
		}
		if settledAt.Valid {
			b.SettledAt = settledAt.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LoadOutcomes devolve os resultados declarados persistidos.
func (p *Postgres) LoadOutcomes(ctx context.Context) ([]ledger.Outcome, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT category, winner, winner_ref, declared_at FROM outcomes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Outcome
	for rows.Next() {
		var o ledger.Outcome
		if err := rows.Scan(&o.Category, &o.Winner, &o.WinnerRef, &o.DeclaredAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// HeldBalance apura o saldo de custódia a partir do diário:
// créditos (CREDIT, FUND) menos débitos (PAYOUT, WITHDRAW).
func (p *Postgres) HeldBalance(ctx context.Context) (int64, error) {
	var held int64
	err := p.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN movement_type IN ('CREDIT','FUND') THEN amount_cents ELSE -amount_cents END), 0)
		FROM custody_ledger`).Scan(&held)
	return held, err
}
