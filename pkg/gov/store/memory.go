package store

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/asthmajoy/govcore/pkg/gov"
)

// MemoryStore is an in-memory implementation of gov.ProposalStore. The store
// is append-only: proposals are never deleted and vote records are never
// overwritten, preserving a permanent audit trail.
type MemoryStore struct {
	proposals map[string]*gov.Proposal
	votes     map[string]map[common.Address]*gov.VoteRecord
	order     []string
	mutex     sync.RWMutex
}

// NewMemoryStore creates a new memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		proposals: make(map[string]*gov.Proposal),
		votes:     make(map[string]map[common.Address]*gov.VoteRecord),
	}
}

// SaveProposal saves a new proposal to the store. Saving an id that already
// exists fails; ids are never reused.
func (s *MemoryStore) SaveProposal(proposal *gov.Proposal) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.proposals[proposal.ID]; exists {
		return fmt.Errorf("proposal %s already exists", proposal.ID)
	}
	s.proposals[proposal.ID] = copyProposal(proposal)
	s.order = append(s.order, proposal.ID)
	return nil
}

// GetProposal retrieves a proposal by ID.
func (s *MemoryStore) GetProposal(id string) (*gov.Proposal, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	proposal, exists := s.proposals[id]
	if !exists {
		return nil, gov.ErrProposalNotFound
	}
	return copyProposal(proposal), nil
}

// ListProposals lists all proposals in creation order.
func (s *MemoryStore) ListProposals() ([]*gov.Proposal, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	proposals := make([]*gov.Proposal, 0, len(s.order))
	for _, id := range s.order {
		proposals = append(proposals, copyProposal(s.proposals[id]))
	}
	return proposals, nil
}

// UpdateProposal applies an update function to a proposal. The update runs
// on a copy; the stored record is replaced only if the update succeeds.
func (s *MemoryStore) UpdateProposal(id string, update func(*gov.Proposal) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	proposal, exists := s.proposals[id]
	if !exists {
		return gov.ErrProposalNotFound
	}

	updated := copyProposal(proposal)
	if err := update(updated); err != nil {
		return err
	}
	s.proposals[id] = updated
	return nil
}

// SaveVote records a vote. A second vote by the same voter on the same
// proposal fails.
func (s *MemoryStore) SaveVote(vote *gov.VoteRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.proposals[vote.ProposalID]; !exists {
		return gov.ErrProposalNotFound
	}

	records, exists := s.votes[vote.ProposalID]
	if !exists {
		records = make(map[common.Address]*gov.VoteRecord)
		s.votes[vote.ProposalID] = records
	}
	if _, voted := records[vote.Voter]; voted {
		return gov.ErrAlreadyVoted
	}
	records[vote.Voter] = copyVote(vote)
	return nil
}

// GetVote retrieves a vote record.
func (s *MemoryStore) GetVote(id string, voter common.Address) (*gov.VoteRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if record, exists := s.votes[id][voter]; exists {
		return copyVote(record), nil
	}
	return nil, nil
}

// ListVotes lists all vote records for a proposal.
func (s *MemoryStore) ListVotes(id string) ([]*gov.VoteRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*gov.VoteRecord, 0, len(s.votes[id]))
	for _, record := range s.votes[id] {
		records = append(records, copyVote(record))
	}
	return records, nil
}

// VoteCount returns the number of votes cast on a proposal.
func (s *MemoryStore) VoteCount(id string) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.votes[id]), nil
}

func copyProposal(proposal *gov.Proposal) *gov.Proposal {
	copied := *proposal
	copied.YesVotes = copyBig(proposal.YesVotes)
	copied.NoVotes = copyBig(proposal.NoVotes)
	copied.AbstainVotes = copyBig(proposal.AbstainVotes)
	copied.StakedAmount = copyBig(proposal.StakedAmount)
	return &copied
}

func copyVote(vote *gov.VoteRecord) *gov.VoteRecord {
	copied := *vote
	copied.Weight = copyBig(vote.Weight)
	return &copied
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
