package core

import (
	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/event"
)

// Backend is the narrow collaborator the state machine needs from the
// chain/transport layers: a minimal contract the state machine drives
// without owning any network transport itself.
type Backend interface {
	Address() common.Address
	Key() *crypto.Key

	// Committee returns the validator set captured at height.
	Committee(height uint64) types.Committee
	LastHeader() *types.Header

	// Broadcast gossips msg to the full committee.
	Broadcast(msg *message.Message)

	// Commit hands a quorum-committed block and its proof to the chain
	//.
	Commit(block *types.Block, proof *types.Proof) error

	// AssembleBlock builds a new candidate block when this node is
	// proposer and not locked.
	AssembleBlock(height uint64) (*types.Block, error)

	// VerifyProposal re-checks a proposal's admission rules.
	VerifyProposal(block *types.Block) error

	Subscribe(types ...interface{}) *event.TypeMuxSubscription
	Post(ev interface{})
}
