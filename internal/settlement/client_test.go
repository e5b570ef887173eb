package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ldto "github.com/radieske/private-betting-ledger/internal/ledger-service/dto"
)

func TestOpenBets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bets", r.URL.Path)
		require.Equal(t, "winner", r.URL.Query().Get("category"))
		require.Equal(t, "true", r.URL.Query().Get("open"))
		_ = json.NewEncoder(w).Encode([]ldto.BetResponse{
			{BetID: 0, UserID: "user1", Category: "winner", Choice: "a", AmountCents: 100},
			{BetID: 2, UserID: "user2", Category: "winner", Choice: "b", AmountCents: 50},
		})
	}))
	defer srv.Close()

	open, err := NewClient(srv.URL).OpenBets(context.Background(), "winner")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, int64(0), open[0].BetID)
	assert.Equal(t, int64(2), open[1].BetID)
}

func TestSettle(t *testing.T) {
	var gotReq ldto.SettleRequest
	status := http.StatusOK

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/settlements", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(ldto.BetResponse{BetID: gotReq.BetID, Settled: true})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	settled, err := c.Settle(context.Background(), 7, "winner")
	require.NoError(t, err)
	assert.True(t, settled)
	assert.Equal(t, int64(7), gotReq.BetID)
	assert.Equal(t, "winner", gotReq.Category)

	// conflito (já liquidada em corrida) não é erro, é skip
	status = http.StatusConflict
	settled, err = c.Settle(context.Background(), 7, "winner")
	require.NoError(t, err)
	assert.False(t, settled)

	status = http.StatusInternalServerError
	_, err = c.Settle(context.Background(), 7, "winner")
	require.Error(t, err)
}
