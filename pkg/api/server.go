// Package api is the HTTP surface: transaction submit, UTXO/copyright
// queries, faucet, status, and a chain dump, plus a /metrics endpoint for
// the prometheus registry cpcmetrics maintains.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cpc-chain/cpcd/pkg/cpcchain"
	"github.com/cpc-chain/cpcd/pkg/cpcconfig"
	"github.com/cpc-chain/cpcd/pkg/cpclog"
	"github.com/cpc-chain/cpcd/pkg/cpcmetrics"
	"github.com/cpc-chain/cpcd/pkg/cpcstate"
	"github.com/cpc-chain/cpcd/pkg/cpctx"
	"github.com/cpc-chain/cpcd/pkg/mempool"
)

// Server is the HTTP API server.
type Server struct {
	router  *mux.Router
	chain   *cpcchain.Chain
	engine  *cpcstate.Engine
	mempool *mempool.Mempool
	metrics *cpcmetrics.Metrics
	config  *cpcconfig.APIConfig
	log     *cpclog.Logger

	faucetMu       sync.Mutex
	faucetLastCall map[string]time.Time
}

// ServerConfig bundles the collaborators a Server needs.
type ServerConfig struct {
	Chain   *cpcchain.Chain
	Engine  *cpcstate.Engine
	Mempool *mempool.Mempool
	Metrics *cpcmetrics.Metrics
	API     *cpcconfig.APIConfig
	Log     *cpclog.Logger
}

// NewServer builds a Server and wires its routes.
func NewServer(config *ServerConfig) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		chain:          config.Chain,
		engine:         config.Engine,
		mempool:        config.Mempool,
		metrics:        config.Metrics,
		config:         config.API,
		log:            cpclog.OrDiscard(config.Log),
		faucetLastCall: make(map[string]time.Time),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.HandleFunc("/api/v1/status", s.statusHandler).Methods("GET")
	s.router.HandleFunc("/api/v1/blocks", s.blocksHandler).Methods("GET")
	s.router.HandleFunc("/api/v1/transactions", s.submitTransactionHandler).Methods("POST")
	s.router.HandleFunc("/api/v1/utxos/{address}", s.utxosHandler).Methods("GET")
	s.router.HandleFunc("/api/v1/copyright/{work_hash}", s.copyrightHandler).Methods("GET")
	s.router.HandleFunc("/api/v1/faucet", s.faucetHandler).Methods("POST")

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}
}

// Router exposes the underlying mux.Router, mainly for tests.
func (s *Server) Router() *mux.Router { return s.router }

// Start runs the HTTP server on the configured listen address.
func (s *Server) Start() error {
	s.log.Infow("starting api server", "address", s.config.ListenAddress)
	return http.ListenAndServe(s.config.ListenAddress, s.router)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "cpcd-api",
	})
}

// statusHandler reports chain height, mempool depth, and the tip hash. The
// miner's address is not part of the response.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"height":        s.chain.Height(),
		"mempool_depth": s.mempool.Size(),
		"tip_hash":      s.chain.TipHash(),
	})
}

// blocksHandler returns the full ordered chain dump.
func (s *Server) blocksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chain.AllBlocks())
}

// submitTransactionHandler accepts a JSON transaction, recomputes its txid
// canonically (never trusting a client-supplied one), and enqueues it.
func (s *Server) submitTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var tx cpctx.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("malformed transaction: %v", err),
		})
		return
	}
	tx.TxID = tx.ComputeTxID()

	if err := s.mempool.Submit(&tx); err != nil {
		if s.metrics != nil {
			s.metrics.RecordRejection(rejectionReason(err))
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	if s.metrics != nil {
		s.metrics.SetMempoolDepth(s.mempool.Size())
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "transaction accepted into mempool",
		"txid":    tx.TxID,
	})
}

// utxosHandler returns {address, balance, utxo_count, copyright_count,
// utxos[]} for the given address.
func (s *Server) utxosHandler(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	utxos := s.engine.UTXOsOfAddress(s.chain, address)
	copyrightCount := 0
	for _, u := range utxos {
		if u.IsCopyright() {
			copyrightCount++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":         address,
		"balance":         s.engine.Balance(s.chain, address),
		"utxo_count":      len(utxos),
		"copyright_count": copyrightCount,
		"utxos":           utxos,
	})
}

// copyrightHandler lists live copyright UTXOs bearing a given work_hash.
func (s *Server) copyrightHandler(w http.ResponseWriter, r *http.Request) {
	workHash := mux.Vars(r)["work_hash"]
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"work_hash": workHash,
		"utxos":     s.engine.CopyrightUTXOsByWorkHash(s.chain, workHash),
	})
}

type faucetRequest struct {
	Address string `json:"address"`
}

// faucetHandler synthesizes a faucet transaction crediting the requested
// address with the configured faucet amount, enforcing a per-address
// cooldown as an API-layer policy — not a consensus rule.
func (s *Server) faucetHandler(w http.ResponseWriter, r *http.Request) {
	var req faucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "request body must carry a non-empty address",
		})
		return
	}

	s.faucetMu.Lock()
	if last, ok := s.faucetLastCall[req.Address]; ok && time.Since(last) < s.config.FaucetCooldown {
		s.faucetMu.Unlock()
		writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"success": false,
			"message": fmt.Sprintf("faucet cooldown active, retry after %s", s.config.FaucetCooldown-time.Since(last)),
		})
		return
	}
	s.faucetLastCall[req.Address] = time.Now()
	s.faucetMu.Unlock()

	out := &cpctx.Output{
		Amount:  s.config.FaucetAmount,
		Address: req.Address,
		Script:  fmt.Sprintf("P2PKH|%s", req.Address),
		Kind:    cpctx.KindFuel,
	}
	tx := cpctx.New(cpctx.Faucet, nil, []*cpctx.Output{out}, nil, time.Now())

	if err := s.mempool.Submit(tx); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if s.metrics != nil {
		s.metrics.SetMempoolDepth(s.mempool.Size())
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"message": "faucet transaction enqueued",
		"txid":    tx.TxID,
	})
}
