// Package node wires the chain, tx-pool, and consensus subsystems into a
// single running instance, the way a full node's top-level service
// wires its chain, pool, and consensus engine into one Backend contract.
package node

import (
	"context"
	"fmt"
	"math/big"

	"github.com/permachain/core/common"
	chaincore "github.com/permachain/core/core"
	"github.com/permachain/core/core/state"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	tmcore "github.com/permachain/core/consensus/tendermint/core"
	"github.com/permachain/core/consensus/tendermint/message"
	"github.com/permachain/core/event"
	"github.com/permachain/core/log"
	"github.com/permachain/core/router"
	"github.com/permachain/core/rlp"
	"github.com/permachain/core/txpool"
	"github.com/permachain/core/wal"
)

// ConsensusTopic is the routing topic for gossiped BFT
// messages: `Sender=Consensus, Kind=Message`.
var ConsensusTopic = router.Topic{Sender: "Consensus", Kind: "Message"}

// Node ties chain, tx-pool, consensus, and the message router together,
// implementing tmcore.Backend itself.
type Node struct {
	key     *crypto.Key
	address common.Address

	chain *chaincore.ChainCore
	pool  *txpool.TxPool
	cons  *tmcore.Core
	exec  chaincore.Executor
	cfg   chaincore.Config

	router *router.Router
	local  *event.TypeMux // delivers MessageEvent/CommitEvent to consensus, per Backend.Subscribe/Post

	state *state.State

	// committee is the validator set passed to New. It is not read from
	// committed state; every height reads the same set.
	committee types.Committee

	log log.Logger
}

// New builds a Node around an already-open chain and pool; Start launches
// the consensus goroutine and the router bridge.
func New(key *crypto.Key, chain *chaincore.ChainCore, pool *txpool.TxPool, exec chaincore.Executor, cfg chaincore.Config, st *state.State, w *wal.WAL, committee types.Committee, logger log.Logger) *Node {
	n := &Node{
		key:       key,
		address:   key.Address(),
		chain:     chain,
		pool:      pool,
		exec:      exec,
		cfg:       cfg,
		state:     st,
		committee: committee,
		router:    router.New(),
		local:     event.NewTypeMux(),
		log:       logger,
	}
	n.cons = tmcore.New(n, w, chain.CurrentHeader(), logger)
	return n
}

// Start subscribes the pool to committed-block notifications, bridges the
// router's consensus topic into the consensus module's local MessageEvent
// feed, and starts the state machine.
func (n *Node) Start(ctx context.Context) {
	statusSub := n.chain.Subscribe(chaincore.BlockTxHashes{})
	go n.pruneLoop(ctx, statusSub)

	netSub := n.router.Subscribe(ConsensusTopic)
	go n.bridgeLoop(ctx, netSub)

	n.cons.Start(ctx)
}

func (n *Node) Stop() {
	n.cons.Stop()
}

// pruneLoop drains committed transactions out of the pool whenever a
// BlockTxHashes event fires.
func (n *Node) pruneLoop(ctx context.Context, sub *event.TypeMuxSubscription) {
	for {
		select {
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			bt, ok := ev.Data.(chaincore.BlockTxHashes)
			if !ok {
				continue
			}
			n.pool.OnBlockCommitted(bt.Height, bt.TxHashes)
			n.pool.SetNextHeight(bt.Height + 1)
		case <-ctx.Done():
			return
		}
	}
}

// bridgeLoop forwards wire payloads received over the router onto the
// consensus module's own MessageEvent feed.
func (n *Node) bridgeLoop(ctx context.Context, sub *event.TypeMuxSubscription) {
	for {
		select {
		case ev, ok := <-sub.Chan():
			if !ok {
				return
			}
			env, ok := ev.Data.(router.Envelope)
			if !ok {
				continue
			}
			payload, ok := env.Payload.([]byte)
			if !ok {
				continue
			}
			n.local.Post(tmcore.MessageEvent{Payload: payload})
		case <-ctx.Done():
			return
		}
	}
}

// --- tmcore.Backend ---

func (n *Node) Address() common.Address { return n.address }
func (n *Node) Key() *crypto.Key        { return n.key }

func (n *Node) Committee(height uint64) types.Committee { return n.committee }

func (n *Node) LastHeader() *types.Header { return n.chain.CurrentHeader() }

// Broadcast gossips a consensus message over the router's ConsensusTopic.
// This node's own bridgeLoop subscribes to that topic, so the message also
// reaches the local MessageEvent feed through it.
func (n *Node) Broadcast(msg *message.Message) {
	b, err := rlp.EncodeToBytes(msg)
	if err != nil {
		n.log.Error("broadcast: encode failed", "err", err)
		return
	}
	n.router.Send(router.Envelope{Origin: 0, OperateType: router.Broadcast, Topic: ConsensusTopic, Payload: b})
}

func (n *Node) Commit(block *types.Block, proof *types.Proof) error {
	header := block.Header()
	header.Proof = proof
	if _, err := n.chain.ApplyBlock(n.exec, n.state, n.cfg, block, n.committee); err != nil {
		return fmt.Errorf("node: commit failed: %w", err)
	}
	n.local.Post(tmcore.CommitEvent{})
	return nil
}

func (n *Node) AssembleBlock(height uint64) (*types.Block, error) {
	txs := n.pool.Assemble(nil)
	header := &types.Header{
		Height:     new(big.Int).SetUint64(height),
		ParentHash: n.chain.CurrentHash(),
		Proposer:   n.address,
	}
	return types.NewBlock(header, types.Transactions(txs)), nil
}

func (n *Node) VerifyProposal(block *types.Block) error {
	if _, reason := n.pool.VerifyBlock([]*types.Transaction(block.Transactions())); reason != txpool.ReasonOK {
		return fmt.Errorf("node: proposal rejected: %s", reason)
	}
	return nil
}

func (n *Node) Subscribe(types ...interface{}) *event.TypeMuxSubscription {
	return n.local.Subscribe(types...)
}

func (n *Node) Post(ev interface{}) { n.local.Post(ev) }
