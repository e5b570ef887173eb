package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/private-betting-ledger/internal/ledger"
	"github.com/radieske/private-betting-ledger/internal/ledger-service/dto"
	"github.com/radieske/private-betting-ledger/internal/ledger-service/repo"
	"github.com/radieske/private-betting-ledger/internal/shared/metrics"
	"github.com/radieske/private-betting-ledger/pkg/contracts/events"
)

// CallerHeader carrega a identidade já autenticada pela camada externa
// (equivalente ao msg.sender); o core confia nela como dada.
const CallerHeader = "X-Caller-Id"

// Journal é o diário persistente (write-behind). Falha aqui não desfaz
// a mutação no core: é logada e o lançamento fica para reconciliação.
type Journal interface {
	InsertBet(ctx context.Context, b ledger.Bet) error
	MarkSettled(ctx context.Context, b ledger.Bet) error
	InsertOutcome(ctx context.Context, o ledger.Outcome) error
	InsertMovement(ctx context.Context, m repo.Movement) error
}

// Publisher emite os eventos pós-mutação do ledger.
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishOutcomeSet(ctx context.Context, e events.OutcomeSet) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// OutcomeCache replica resultados declarados para leitura barata.
type OutcomeCache interface {
	Set(ctx context.Context, o ledger.Outcome) error
	Get(ctx context.Context, category string) (ledger.Outcome, bool, error)
}

// Server expõe a API pública do ledger. Dependências opcionais (journal,
// publisher, cache, métricas) podem ser nil — em env local e nos testes
// o core roda sozinho.
type Server struct {
	log     *zap.Logger
	core    *ledger.Ledger
	journal Journal
	publ    Publisher
	ocache  OutcomeCache
	mtr     *metrics.LedgerMetrics
}

func NewServer(log *zap.Logger, core *ledger.Ledger, j Journal, p Publisher, c OutcomeCache, m *metrics.LedgerMetrics) *Server {
	return &Server{log: log, core: core, journal: j, publ: p, ocache: c, mtr: m}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.bets)               // POST place | GET all (?userId=)
	mux.HandleFunc("/bets/", s.getBet)            // GET /bets/{id}
	mux.HandleFunc("/outcomes", s.outcomes)       // POST (owner) | GET (?category=)
	mux.HandleFunc("/settlements", s.settle)      // POST
	mux.HandleFunc("/withdrawals", s.withdraw)    // POST (owner)
	mux.HandleFunc("/custody", s.custody)         // GET
	mux.HandleFunc("/custody/fund", s.fund)       // POST (owner)
	mux.HandleFunc("/info", s.info)               // GET
	return mux
}

func (s *Server) bets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.placeBet(w, r)
	case http.MethodGet:
		s.listBets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(CallerHeader)
	if caller == "" {
		http.Error(w, "caller identity required", http.StatusBadRequest)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var (
		b   ledger.Bet
		err error
	)
	if req.Category == "" && req.Reference == "" && req.Param1 == "" && req.Param2 == "" && len(req.Aux) == 0 {
		// assinatura simples placeBet(choice): shim de compatibilidade;
		// qualquer metadado presente força a assinatura estendida
		b, err = s.core.PlaceBetSimple(r.Context(), caller, req.Choice, req.AmountCents)
	} else {
		b, err = s.core.PlaceBet(r.Context(), ledger.PlaceBetInput{
			User:        caller,
			Category:    req.Category,
			Choice:      req.Choice,
			Reference:   req.Reference,
			Param1:      req.Param1,
			Param2:      req.Param2,
			Aux:         req.Aux,
			AmountCents: req.AmountCents,
		})
	}
	if err != nil {
		s.reject(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.InsertBet(r.Context(), b); jerr != nil {
			s.log.Warn("journal insert bet", zap.Int64("betId", b.ID), zap.Error(jerr))
		}
	}
	if s.publ != nil {
		_ = s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
			BetID:       b.ID,
			UserID:      b.User,
			Category:    b.Category,
			Choice:      b.Choice,
			AmountCents: b.AmountCents,
			Reference:   b.Reference,
			Aux:         b.Aux,
		})
	}
	if s.mtr != nil {
		s.mtr.BetsPlaced.Inc()
		s.mtr.CustodyBalance.Set(float64(s.core.Balance()))
	}

	writeJSONStatus(w, http.StatusCreated, toBetResponse(b))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	var bets []ledger.Bet
	if userID := r.URL.Query().Get("userId"); userID != "" {
		bets = s.core.GetBets(userID)
	} else if category := r.URL.Query().Get("category"); category != "" && r.URL.Query().Get("open") == "true" {
		bets = s.core.OpenBets(category)
	} else {
		bets = s.core.GetAllBets()
	}

	out := make([]dto.BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetResponse(b))
	}
	writeJSON(w, out)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// path: /bets/{id}
	raw := r.URL.Path[len("/bets/"):]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "betId must be numeric", http.StatusBadRequest)
		return
	}
	b, err := s.core.GetBet(id)
	if err != nil {
		s.reject(w, err)
		return
	}
	writeJSON(w, toBetResponse(b))
}

func (s *Server) outcomes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.setOutcome(w, r)
	case http.MethodGet:
		s.getOutcome(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// getOutcome lê do cache quando disponível; miss cai no core.
func (s *Server) getOutcome(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = ledger.DefaultCategory
	}

	if s.ocache != nil {
		if out, ok, err := s.ocache.Get(r.Context(), category); err == nil && ok {
			writeJSON(w, toOutcomeResponse(out))
			return
		} else if err != nil {
			s.log.Warn("outcome cache get", zap.String("category", category), zap.Error(err))
		}
	}

	out, ok := s.core.OutcomeFor(category)
	if !ok {
		s.reject(w, ledger.ErrNotFound)
		return
	}
	writeJSON(w, toOutcomeResponse(out))
}

func (s *Server) setOutcome(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(CallerHeader)
	var req dto.SetOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	out, err := s.core.SetOutcome(caller, req.Category, req.Winner, req.WinnerRef)
	if err != nil {
		s.reject(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.InsertOutcome(r.Context(), out); jerr != nil {
			s.log.Warn("journal insert outcome", zap.String("category", out.Category), zap.Error(jerr))
		}
	}
	if s.ocache != nil {
		if cerr := s.ocache.Set(r.Context(), out); cerr != nil {
			s.log.Warn("outcome cache set", zap.String("category", out.Category), zap.Error(cerr))
		}
	}
	if s.publ != nil {
		_ = s.publ.PublishOutcomeSet(r.Context(), events.OutcomeSet{
			Category:   out.Category,
			Winner:     out.Winner,
			WinnerRef:  out.WinnerRef,
			DeclaredBy: caller,
			DeclaredAt: out.DeclaredAt,
		})
	}

	writeJSON(w, toOutcomeResponse(out))
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller := r.Header.Get(CallerHeader)
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var (
		b    ledger.Bet
		err  error
		mode string
	)
	if req.PayoutCents != nil {
		// variante direta: owner atribui o payout sem lookup de resultado
		mode = "DIRECT"
		b, err = s.core.SettleBetDirect(r.Context(), caller, req.BetID, *req.PayoutCents)
	} else {
		if req.Category == "" {
			http.Error(w, "category or payout_cents required", http.StatusBadRequest)
			return
		}
		mode = "OUTCOME"
		b, err = s.core.SettleBet(r.Context(), req.BetID, req.Category)
	}
	if err != nil {
		s.reject(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.MarkSettled(r.Context(), b); jerr != nil {
			s.log.Warn("journal mark settled", zap.Int64("betId", b.ID), zap.Error(jerr))
		}
	}
	if s.publ != nil {
		_ = s.publ.PublishBetSettled(r.Context(), events.BetSettled{
			BetID:       b.ID,
			UserID:      b.User,
			Category:    b.Category,
			Won:         b.PayoutCents > 0,
			PayoutCents: b.PayoutCents,
			Mode:        mode,
			Ts:          time.Now(),
		})
	}
	if s.mtr != nil {
		result := "lost"
		if mode == "DIRECT" {
			result = "direct"
		} else if b.PayoutCents > 0 {
			result = "won"
		}
		s.mtr.Settlements.WithLabelValues(result).Inc()
		s.mtr.CustodyBalance.Set(float64(s.core.Balance()))
	}

	writeJSON(w, toBetResponse(b))
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller := r.Header.Get(CallerHeader)
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.core.Withdraw(r.Context(), caller, req.AmountCents); err != nil {
		s.reject(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.InsertMovement(r.Context(), repo.Movement{
			Type:        repo.MovementWithdraw,
			AmountCents: req.AmountCents,
			Description: "withdraw:" + caller,
		}); jerr != nil {
			s.log.Warn("journal withdraw", zap.Error(jerr))
		}
	}
	if s.mtr != nil {
		s.mtr.Withdrawals.Inc()
		s.mtr.CustodyBalance.Set(float64(s.core.Balance()))
	}

	s.custodySnapshot(w)
}

func (s *Server) fund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller := r.Header.Get(CallerHeader)
	var req dto.FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if err := s.core.Fund(r.Context(), caller, req.AmountCents); err != nil {
		s.reject(w, err)
		return
	}

	if s.journal != nil {
		if jerr := s.journal.InsertMovement(r.Context(), repo.Movement{
			Type:        repo.MovementFund,
			AmountCents: req.AmountCents,
			Description: "fund:" + caller,
		}); jerr != nil {
			s.log.Warn("journal fund", zap.Error(jerr))
		}
	}
	if s.mtr != nil {
		s.mtr.CustodyBalance.Set(float64(s.core.Balance()))
	}

	s.custodySnapshot(w)
}

func (s *Server) custody(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.custodySnapshot(w)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p1, p2 := s.core.Params()
	writeJSON(w, dto.InfoResponse{Owner: s.core.Owner(), Param1: p1, Param2: p2})
}

func (s *Server) custodySnapshot(w http.ResponseWriter) {
	writeJSON(w, dto.CustodyResponse{
		HeldCents:        s.core.Balance(),
		OutstandingCents: s.core.Outstanding(),
		AvailableCents:   s.core.Available(),
	})
}

// reject mapeia cada erro de domínio para um status distinto e conta a
// rejeição; erro fora da taxonomia (falha de transferência) é 502.
func (s *Server) reject(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	reason := "transfer_failed"
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		status, reason = http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ledger.ErrInvalidChoice):
		status, reason = http.StatusBadRequest, "invalid_choice"
	case errors.Is(err, ledger.ErrUnauthorized):
		status, reason = http.StatusForbidden, "unauthorized"
	case errors.Is(err, ledger.ErrNotFound):
		status, reason = http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrAlreadySettled):
		status, reason = http.StatusConflict, "already_settled"
	case errors.Is(err, ledger.ErrOutcomeNotSet):
		status, reason = http.StatusConflict, "outcome_not_set"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status, reason = http.StatusConflict, "insufficient_funds"
	}
	if s.mtr != nil {
		s.mtr.Rejections.WithLabelValues(reason).Inc()
	}
	http.Error(w, err.Error(), status)
}

func toOutcomeResponse(o ledger.Outcome) dto.OutcomeResponse {
	return dto.OutcomeResponse{
		Category:   o.Category,
		Winner:     o.Winner,
		WinnerRef:  o.WinnerRef,
		DeclaredAt: o.DeclaredAt,
	}
}

func toBetResponse(b ledger.Bet) dto.BetResponse {
	resp := dto.BetResponse{
		BetID:       b.ID,
		UserID:      b.User,
		Category:    b.Category,
		Choice:      b.Choice,
		Reference:   b.Reference,
		Param1:      b.Param1,
		Param2:      b.Param2,
		Aux:         b.Aux,
		AmountCents: b.AmountCents,
		Settled:     b.Settled,
		PayoutCents: b.PayoutCents,
		PlacedAt:    b.PlacedAt,
	}
	if b.Settled {
		t := b.SettledAt
		resp.SettledAt = &t
	}
	return resp
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
