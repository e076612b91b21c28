package types

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

// Commit is one validator's precommit signature gathered into a Proof.
type Commit struct {
	Sender    common.Address
	Signature []byte
}

// Proof is the BFT quorum-commit witness: `{ height, round,
// proposal_hash, commits: { sender → signature } }` with `|commits| > ⅔·N`.
// Commits are kept sorted by sender for a canonical, deterministic
// encoding (a map would make header hashing order-dependent).
type Proof struct {
	Height       uint64
	Round        int64
	ProposalHash common.Hash
	Commits      []Commit
}

// NewProof builds a Proof from a commits map, sorting entries by sender.
func NewProof(height uint64, round int64, proposalHash common.Hash, commits map[common.Address][]byte) *Proof {
	p := &Proof{Height: height, Round: round, ProposalHash: proposalHash}
	for addr, sig := range commits {
		p.Commits = append(p.Commits, Commit{Sender: addr, Signature: sig})
	}
	sort.Slice(p.Commits, func(i, j int) bool {
		return bytes.Compare(p.Commits[i].Sender[:], p.Commits[j].Sender[:]) < 0
	})
	return p
}

// IsSentinel reports whether this is the genesis sentinel proof.
func (p *Proof) IsSentinel() bool {
	return p == nil || (p.Height == 0 && p.Round == 0 && len(p.Commits) == 0 && p.ProposalHash.IsZero())
}

// Senders returns the set of addresses that signed this proof.
func (p *Proof) Senders() []common.Address {
	out := make([]common.Address, len(p.Commits))
	for i, c := range p.Commits {
		out[i] = c.Sender
	}
	return out
}

// precommitStep mirrors consensus/tendermint/message.StepPrecommit's wire
// value. It is duplicated here, rather than imported, since message
// already imports types and an import back would cycle.
const precommitStep = 2

// precommitWire reproduces the field layout message.Vote signs over
// (Height, Round, Step, Sender, ProposalHash) so a Commit's signature can
// be recovered without depending on the message package.
type precommitWire struct {
	Height       uint64
	Round        uint64
	Step         uint8
	Sender       common.Address
	ProposalHash common.Hash
}

func (p *Proof) precommitDigest(sender common.Address) (common.Hash, error) {
	w := precommitWire{
		Height:       p.Height,
		Round:        uint64(p.Round),
		Step:         precommitStep,
		Sender:       sender,
		ProposalHash: p.ProposalHash,
	}
	b, err := rlp.EncodeToBytes(w)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256(b), nil
}

// Verify confirms Commits actually witnesses a BFT quorum for blockHash
// among committee: ProposalHash must match blockHash, every commit's
// signature must recover to its claimed Sender, every Sender must be a
// distinct member of committee, and at least committee.Quorum() of them
// must check out.
func (p *Proof) Verify(committee Committee, blockHash common.Hash) error {
	if p == nil {
		return fmt.Errorf("types: proof is nil")
	}
	if p.ProposalHash != blockHash {
		return fmt.Errorf("types: proof proposal hash %x does not match block hash %x", p.ProposalHash, blockHash)
	}
	seen := make(map[common.Address]bool, len(p.Commits))
	valid := 0
	for _, c := range p.Commits {
		if !committee.Contains(c.Sender) {
			return fmt.Errorf("types: proof commit sender %x is not a committee member", c.Sender)
		}
		if seen[c.Sender] {
			return fmt.Errorf("types: proof commit sender %x appears more than once", c.Sender)
		}
		seen[c.Sender] = true

		digest, err := p.precommitDigest(c.Sender)
		if err != nil {
			return err
		}
		addr, err := crypto.RecoverAddress(digest, c.Signature)
		if err != nil {
			return fmt.Errorf("types: proof commit signature invalid: %w", err)
		}
		if addr != c.Sender {
			return fmt.Errorf("types: proof commit signature address %x does not match claimed sender %x", addr, c.Sender)
		}
		valid++
	}
	if valid < committee.Quorum() {
		return fmt.Errorf("types: proof has %d valid commits, need %d for quorum", valid, committee.Quorum())
	}
	return nil
}
