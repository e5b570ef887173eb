package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics agrupa os contadores operacionais do ledger-service.
// Registrado uma única vez no boot do serviço.
type LedgerMetrics struct {
	BetsPlaced     prometheus.Counter
	Settlements    *prometheus.CounterVec // label result: "won" | "lost" | "direct"
	Withdrawals    prometheus.Counter
	Rejections     *prometheus.CounterVec // label reason: nome do erro de domínio
	CustodyBalance prometheus.Gauge
}

func NewLedgerMetrics() *LedgerMetrics {
	m := &LedgerMetrics{
		BetsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_bets_placed_total",
			Help: "apostas registradas",
		}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_settlements_total",
			Help: "apostas liquidadas por resultado",
		}, []string{"result"}),
		Withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_withdrawals_total",
			Help: "saques do owner",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_rejections_total",
			Help: "operações rejeitadas por motivo",
		}, []string{"reason"}),
		CustodyBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_custody_balance_cents",
			Help: "saldo em custódia (cents)",
		}),
	}

	prometheus.MustRegister(m.BetsPlaced, m.Settlements, m.Withdrawals, m.Rejections, m.CustodyBalance)
	return m
}
