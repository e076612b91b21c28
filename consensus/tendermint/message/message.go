// Package message defines the wire types the BFT state machine exchanges:
// votes and proposals, wrapped in a signed
// Message envelope for gossip. RLP (de)serialization follows the
// Proposal/Vote pattern in its retired consensus/tendermint/messages
// package: an explicit "is this optional field nil" flag alongside the
// field itself, since RLP cannot natively represent an absent int64 or
// absent slice distinctly from a zero one.
package message

import (
	"errors"
	"fmt"
	"io"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

// MaxRound bounds Round to keep a malicious peer from forcing unbounded
// round-robin computation.
const MaxRound = 1 << 20

// Code identifies a consensus message's payload kind on the wire.
type Code uint8

const (
	CodeProposal Code = iota
	CodePrevote
	CodePrecommit
)

// Step is the three-step BFT state machine's vote kind; Propose
// never appears as a Vote.Step value.
type Step uint8

const (
	StepPropose Step = iota
	StepPrevote
	StepPrecommit
)

func (s Step) String() string {
	switch s {
	case StepPropose:
		return "propose"
	case StepPrevote:
		return "prevote"
	case StepPrecommit:
		return "precommit"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidMessage = errors.New("message: invalid round or height")
	ErrNilBlock        = errors.New("message: proposal with nil block")
)

// Vote is `{ height, round, step, sender, proposal_hash_or_nil, signature }`
//. A zero ProposalHash means the null vote.
type Vote struct {
	Height       uint64
	Round        int64
	Step         Step
	Sender       common.Address
	ProposalHash common.Hash
	Signature    []byte
}

func (v *Vote) String() string {
	return fmt.Sprintf("{height:%d round:%d step:%s hash:%s}", v.Height, v.Round, v.Step, v.ProposalHash.Hex())
}

func (v *Vote) voteWire() *voteWire {
	return &voteWire{Height: v.Height, Round: uint64(v.Round), Step: v.Step, Sender: v.Sender, ProposalHash: v.ProposalHash}
}

type voteWire struct {
	Height       uint64
	Round        uint64
	Step         Step
	Sender       common.Address
	ProposalHash common.Hash
}

// EncodeRLP excludes Signature: votes are signed over their unsigned
// encoding, mirroring Transaction's unsignedPayload split.
func (v *Vote) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, v.voteWire())
}

func (v *Vote) DecodeRLP(s *rlp.Stream) error {
	var w voteWire
	if err := s.Decode(&w); err != nil {
		return err
	}
	if w.Round > MaxRound {
		return ErrInvalidMessage
	}
	v.Height, v.Round, v.Step, v.Sender, v.ProposalHash = w.Height, int64(w.Round), w.Step, w.Sender, w.ProposalHash
	return nil
}

// UnsignedBytes is what Signature is computed over.
func (v *Vote) UnsignedBytes() ([]byte, error) { return rlp.EncodeToBytes(v.voteWire()) }

func (v *Vote) Hash() common.Hash {
	b, _ := v.UnsignedBytes()
	return crypto.Keccak256(b)
}

// Sign fills in Sender and Signature from signer.
func (v *Vote) Sign(signer *crypto.Key) error {
	b, err := v.UnsignedBytes()
	if err != nil {
		return err
	}
	sig, err := signer.Sign(crypto.Keccak256(b))
	if err != nil {
		return err
	}
	v.Sender = signer.Address()
	v.Signature = sig
	return nil
}

// VerifySignature recovers the signer from Signature and requires it to
// equal Sender.
func (v *Vote) VerifySignature() error {
	b, err := v.UnsignedBytes()
	if err != nil {
		return err
	}
	addr, err := crypto.RecoverAddress(crypto.Keccak256(b), v.Signature)
	if err != nil {
		return err
	}
	if addr != v.Sender {
		return fmt.Errorf("message: signature address %x does not match sender %x", addr, v.Sender)
	}
	return nil
}

// Proposal is `{ height, round, block, lock_round?, lock_votes? }`:
// the proposer's candidate block for (height, round), plus the evidence
// justifying a re-proposal of a value it is locked on.
type Proposal struct {
	Height    uint64
	Round     int64
	Block     *types.Block
	LockRound int64 // -1 if the proposer is not locked
	LockVotes []Vote
	Sender    common.Address
	Signature []byte
}

func (p *Proposal) String() string {
	return fmt.Sprintf("{height:%d round:%d block:%s lockRound:%d}", p.Height, p.Round, p.Block.Hash().Hex(), p.LockRound)
}

type proposalWire struct {
	Height          uint64
	Round           uint64
	Block           *types.Block
	LockRound       uint64
	IsLockRoundNil  bool
	LockVotes       []Vote
	IsLockVotesNil  bool
	Sender          common.Address
}

func (p *Proposal) wire() (*proposalWire, error) {
	if p.Block == nil {
		return nil, ErrNilBlock
	}
	w := &proposalWire{Height: p.Height, Round: uint64(p.Round), Block: p.Block, Sender: p.Sender}
	if p.LockRound == -1 {
		w.IsLockRoundNil = true
	} else {
		w.LockRound = uint64(p.LockRound)
	}
	if p.LockVotes == nil {
		w.IsLockVotesNil = true
	} else {
		w.LockVotes = p.LockVotes
	}
	return w, nil
}

func (p *Proposal) EncodeRLP(w io.Writer) error {
	pw, err := p.wire()
	if err != nil {
		return err
	}
	return rlp.Encode(w, pw)
}

func (p *Proposal) DecodeRLP(s *rlp.Stream) error {
	var w proposalWire
	if err := s.Decode(&w); err != nil {
		return err
	}
	if w.Round > MaxRound {
		return ErrInvalidMessage
	}
	if w.Block == nil {
		return ErrNilBlock
	}
	p.Height, p.Round, p.Block, p.Sender = w.Height, int64(w.Round), w.Block, w.Sender
	if w.IsLockRoundNil {
		p.LockRound = -1
	} else {
		if w.LockRound > MaxRound {
			return ErrInvalidMessage
		}
		p.LockRound = int64(w.LockRound)
	}
	if !w.IsLockVotesNil {
		p.LockVotes = w.LockVotes
	}
	return nil
}

func (p *Proposal) unsignedBytes() ([]byte, error) {
	w, err := p.wire()
	if err != nil {
		return nil, err
	}
	w.Sender = common.Address{}
	return rlp.EncodeToBytes(w)
}

func (p *Proposal) Sign(signer *crypto.Key) error {
	b, err := p.unsignedBytes()
	if err != nil {
		return err
	}
	sig, err := signer.Sign(crypto.Keccak256(b))
	if err != nil {
		return err
	}
	p.Sender = signer.Address()
	p.Signature = sig
	return nil
}

func (p *Proposal) VerifySignature() error {
	b, err := p.unsignedBytes()
	if err != nil {
		return err
	}
	addr, err := crypto.RecoverAddress(crypto.Keccak256(b), p.Signature)
	if err != nil {
		return err
	}
	if addr != p.Sender {
		return fmt.Errorf("message: proposal signature address %x does not match sender %x", addr, p.Sender)
	}
	return nil
}

// Message is the signed gossip envelope carrying a Vote or Proposal
// payload, matching the Message/msgCache
// split: Hash is excluded from the wire (tag "-"); it is set when the
// message is built and signed, and DecodeRLP leaves it unset.
type Message struct {
	Code      Code
	Payload   []byte
	Address   common.Address
	Signature []byte
	Hash      common.Hash `rlp:"-"`
}

func (m *Message) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []interface{}{uint8(m.Code), m.Payload, m.Address, m.Signature})
}

func (m *Message) DecodeRLP(s *rlp.Stream) error {
	var enc struct {
		Code      uint8
		Payload   []byte
		Address   common.Address
		Signature []byte
	}
	if err := s.Decode(&enc); err != nil {
		return err
	}
	m.Code = Code(enc.Code)
	m.Payload = enc.Payload
	m.Address = enc.Address
	m.Signature = enc.Signature
	return nil
}

// DecodeVote decodes Payload as a Vote.
func (m *Message) DecodeVote() (*Vote, error) {
	v := new(Vote)
	if err := rlp.DecodeBytes(m.Payload, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeProposal decodes Payload as a Proposal.
func (m *Message) DecodeProposal() (*Proposal, error) {
	p := new(Proposal)
	if err := rlp.DecodeBytes(m.Payload, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewVoteMessage builds and signs a Message wrapping v.
func NewVoteMessage(v *Vote, code Code, signer *crypto.Key) (*Message, error) {
	if err := v.Sign(signer); err != nil {
		return nil, err
	}
	payload, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return sign(code, payload, signer)
}

// NewProposalMessage builds and signs a Message wrapping p.
func NewProposalMessage(p *Proposal, signer *crypto.Key) (*Message, error) {
	if err := p.Sign(signer); err != nil {
		return nil, err
	}
	payload, err := rlp.EncodeToBytes(p)
	if err != nil {
		return nil, err
	}
	return sign(CodeProposal, payload, signer)
}

func sign(code Code, payload []byte, signer *crypto.Key) (*Message, error) {
	sig, err := signer.Sign(crypto.Keccak256(payload))
	if err != nil {
		return nil, err
	}
	m := &Message{Code: code, Payload: payload, Address: signer.Address(), Signature: sig}
	enc, err := rlp.EncodeToBytes(m)
	if err != nil {
		return nil, err
	}
	m.Hash = crypto.Keccak256(enc)
	return m, nil
}

// VerifySignature checks Signature against Payload and requires the
// recovered address to equal Address.
func (m *Message) VerifySignature() error {
	addr, err := crypto.RecoverAddress(crypto.Keccak256(m.Payload), m.Signature)
	if err != nil {
		return err
	}
	if addr != m.Address {
		return fmt.Errorf("message: envelope signature address %x does not match Address %x", addr, m.Address)
	}
	return nil
}
