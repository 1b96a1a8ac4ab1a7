package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpc-chain/cpcd/pkg/cpcchain"
	"github.com/cpc-chain/cpcd/pkg/cpcconfig"
	"github.com/cpc-chain/cpcd/pkg/cpcmetrics"
	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/mempool"
	"github.com/cpc-chain/cpcd/pkg/validator"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	genesisTime := time.Unix(1_700_000_000, 0)
	chain, err := cpcchain.NewChain("miner-addr", genesisTime, 1)
	require.NoError(t, err)

	engine := cpcstate.NewEngine(16)
	v := validator.New(engine)
	mp := mempool.New(v, chain, func() time.Time { return genesisTime.Add(time.Minute) })

	apiCfg := cpcconfig.Default().API
	apiCfg.FaucetCooldown = 0

	return NewServer(&ServerConfig{
		Chain:   chain,
		Engine:  engine,
		Mempool: mp,
		Metrics: cpcmetrics.New(),
		API:     &apiCfg,
	})
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusHandlerReportsGenesisHeight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["height"])
	assert.Equal(t, float64(0), body["mempool_depth"])
}

func TestFaucetHandlerEnqueuesTransaction(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(faucetRequest{Address: "alice"})
	req := httptest.NewRequest("POST", "/api/v1/faucet", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 202, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["success"].(bool))
	assert.NotEmpty(t, resp["txid"])
	assert.Equal(t, 1, s.mempool.Size())
}

func TestFaucetHandlerRejectsEmptyAddress(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(faucetRequest{Address: ""})
	req := httptest.NewRequest("POST", "/api/v1/faucet", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestUTXOsHandlerIgnoresUnminedFaucet(t *testing.T) {
	s := newTestServer(t)
	body, _ := json.Marshal(faucetRequest{Address: "alice"})
	req := httptest.NewRequest("POST", "/api/v1/faucet", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, 202, rec.Code)

	req = httptest.NewRequest("GET", "/api/v1/utxos/alice", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var body2 map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body2))
	assert.Equal(t, "alice", body2["address"])
	// Not yet mined, so the faucet transaction is still only in the
	// mempool and has not created a UTXO yet.
	assert.Equal(t, float64(0), body2["balance"])
}

func TestSubmitTransactionRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/v1/transactions", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestBlocksHandlerReturnsGenesis(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/blocks", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var blocks []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocks))
	assert.Len(t, blocks, 1)
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "cpc_chain_height")
}
