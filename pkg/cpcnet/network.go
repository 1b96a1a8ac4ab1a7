//go:build p2p
// +build p2p

// Package cpcnet is the gossip layer: broadcasting new mempool transactions
// and chain-tip announcements to peers, and delivering what peers gossip to
// a local handler. Reconciling conflicting tips or chains is explicitly out
// of scope here — the state engine and chain package have no notion of
// network peers; cpcnet only moves bytes between topics and callers.
package cpcnet

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/libp2p/go-libp2p/p2p/discovery/routing"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/libp2p/go-libp2p/p2p/transport/tcp"
	multiaddr "github.com/multiformats/go-multiaddr"

	"github.com/cpc-chain/cpcd/pkg/cpctx"
)

const (
	topicTransactions = "cpc/transactions"
	topicTips         = "cpc/tips"
	rendezvous        = "cpc-chain"
)

// Config configures the gossip layer.
type Config struct {
	ListenPort     int
	BootstrapPeers []string
	EnableMDNS     bool
}

// Message is the gossip envelope: a type tag plus a raw JSON payload.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	From      peer.ID         `json:"from"`
}

// TipAnnouncement is gossiped whenever a node extends its chain.
type TipAnnouncement struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// Network is a libp2p gossip-sub host joined to the transaction and
// chain-tip topics.
type Network struct {
	mu     sync.RWMutex
	host   host.Host
	dht    *dht.IpfsDHT
	pubsub *pubsub.PubSub
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a libp2p host, joins the DHT, and starts gossipsub.
func New(config *Config) (*Network, error) {
	ctx, cancel := context.WithCancel(context.Background())

	priv, _, err := crypto.GenerateKeyPairWithReader(crypto.Ed25519, 2048, rand.Reader)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cpcnet: generate identity: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", config.ListenPort)),
		libp2p.Security(noise.ID, noise.New),
		libp2p.Transport(tcp.NewTCPTransport),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cpcnet: create host: %w", err)
	}

	kad, err := dht.New(ctx, h, dht.Mode(dht.ModeServer))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cpcnet: create dht: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cpcnet: create gossipsub: %w", err)
	}

	n := &Network{host: h, dht: kad, pubsub: ps, ctx: ctx, cancel: cancel}

	if config.EnableMDNS {
		mdns.NewMdnsService(h, rendezvous, mdnsNotifee{})
	}
	if err := n.advertise(); err != nil {
		cancel()
		return nil, err
	}
	n.dialBootstrap(config.BootstrapPeers)

	return n, nil
}

type mdnsNotifee struct{}

func (mdnsNotifee) HandlePeerFound(peer.AddrInfo) {}

func (n *Network) advertise() error {
	disc := routing.NewRoutingDiscovery(n.dht)
	_, err := disc.Advertise(n.ctx, rendezvous)
	if err != nil {
		return fmt.Errorf("cpcnet: advertise: %w", err)
	}
	return nil
}

func (n *Network) dialBootstrap(addrs []string) {
	for _, raw := range addrs {
		ma, err := multiaddr.NewMultiaddr(raw)
		if err != nil {
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			continue
		}
		go func(pi peer.AddrInfo) {
			ctx, cancel := context.WithTimeout(n.ctx, 10*time.Second)
			defer cancel()
			_ = n.host.Connect(ctx, pi)
		}(*info)
	}
}

func (n *Network) publish(topicName, msgType string, payload interface{}) error {
	topic, err := n.pubsub.Join(topicName)
	if err != nil {
		return fmt.Errorf("cpcnet: join topic %s: %w", topicName, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cpcnet: marshal payload: %w", err)
	}
	msg := Message{Type: msgType, Payload: raw, Timestamp: time.Now(), From: n.host.ID()}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("cpcnet: marshal message: %w", err)
	}
	return topic.Publish(n.ctx, data)
}

// BroadcastTransaction gossips a mempool submission to every peer.
func (n *Network) BroadcastTransaction(tx *cpctx.Transaction) error {
	return n.publish(topicTransactions, "transaction", tx)
}

// BroadcastTip gossips a new chain tip.
func (n *Network) BroadcastTip(announcement TipAnnouncement) error {
	return n.publish(topicTips, "tip", announcement)
}

// SubscribeTransactions calls handler for every transaction gossiped by a
// peer (never for our own broadcasts).
func (n *Network) SubscribeTransactions(handler func(*cpctx.Transaction)) error {
	topic, err := n.pubsub.Join(topicTransactions)
	if err != nil {
		return fmt.Errorf("cpcnet: join topic: %w", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("cpcnet: subscribe: %w", err)
	}
	go n.pump(sub, func(payload json.RawMessage) {
		var tx cpctx.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return
		}
		handler(&tx)
	})
	return nil
}

// SubscribeTips calls handler for every tip announcement gossiped by a peer.
func (n *Network) SubscribeTips(handler func(TipAnnouncement)) error {
	topic, err := n.pubsub.Join(topicTips)
	if err != nil {
		return fmt.Errorf("cpcnet: join topic: %w", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		return fmt.Errorf("cpcnet: subscribe: %w", err)
	}
	go n.pump(sub, func(payload json.RawMessage) {
		var ann TipAnnouncement
		if err := json.Unmarshal(payload, &ann); err != nil {
			return
		}
		handler(ann)
	})
	return nil
}

func (n *Network) pump(sub *pubsub.Subscription, deliver func(json.RawMessage)) {
	defer sub.Cancel()
	for {
		raw, err := sub.Next(n.ctx)
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(raw.Data, &msg); err != nil {
			continue
		}
		if msg.From == n.host.ID() {
			continue
		}
		deliver(msg.Payload)
	}
}

// PeerCount returns the number of peers currently known to the libp2p host.
func (n *Network) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.host.Network().Peers())
}

// Close tears down the host and DHT.
func (n *Network) Close() error {
	n.cancel()
	if err := n.dht.Close(); err != nil {
		return err
	}
	return n.host.Close()
}
