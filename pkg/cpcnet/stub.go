//go:build !p2p
// +build !p2p

package cpcnet

import (
	"fmt"

	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

// Config configures the gossip layer (stub shape, unused without the p2p
// build tag).
type Config struct {
	ListenPort     int
	BootstrapPeers []string
	EnableMDNS     bool
}

// TipAnnouncement is gossiped whenever a node extends its chain.
type TipAnnouncement struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// Network is a no-op stub: the default build runs a single node with no
// gossip layer.
type Network struct{}

// New fails clearly rather than silently behaving as if peers exist.
func New(config *Config) (*Network, error) {
	return nil, fmt.Errorf("cpcnet: gossip requires building with -tags p2p")
}

func (n *Network) BroadcastTransaction(tx *cpctx.Transaction) error { return nil }
func (n *Network) BroadcastTip(announcement TipAnnouncement) error  { return nil }
func (n *Network) SubscribeTransactions(handler func(*cpctx.Transaction)) error { return nil }
func (n *Network) SubscribeTips(handler func(TipAnnouncement)) error            { return nil }
func (n *Network) PeerCount() int                                              { return 0 }
func (n *Network) Close() error                                                { return nil }
