package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"costume-vote-backend/internal/models"
	"costume-vote-backend/internal/repository"
)

// fakeStore is an in-memory implementation of the store interfaces. It
// emulates the same uniqueness constraints the SQL schema enforces,
// including the (voter, round, points) backstop, under a single mutex so
// concurrent ballot commits behave like the real transactional store.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
	votes   map[string]*models.Vote
	voters  map[string]*models.Voter
	state   models.PhaseState
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[string]*models.Entry),
		votes:   make(map[string]*models.Vote),
		voters:  make(map[string]*models.Voter),
		state:   models.PhaseState{Phase: models.PhaseUpload, UpdatedAt: time.Now()},
	}
}

func voteKey(voterPhone string, round, points int) string {
	return fmt.Sprintf("%s|%d|%d", voterPhone, round, points)
}

// EntryStore

func (f *fakeStore) Create(_ context.Context, entry *models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.OwnerPhone == entry.OwnerPhone {
			return repository.ErrPhoneRegistered
		}
	}
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) GetByIDs(_ context.Context, ids []string) ([]*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []*models.Entry
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := f.entries[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByRank(_ context.Context) ([]*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rankedLocked(), nil
}

func (f *fakeStore) rankedLocked() []*models.Entry {
	out := make([]*models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *fakeStore) Update(_ context.Context, entry *models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entry.ID]
	if !ok {
		return repository.ErrNotFound
	}
	e.DisplayName = entry.DisplayName
	e.Title = entry.Title
	e.Description = entry.Description
	e.UpdatedAt = entry.UpdatedAt
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.entries, id)
	for k, v := range f.votes {
		if v.EntryID == id {
			delete(f.votes, k)
		}
	}
	return nil
}

func (f *fakeStore) PhoneExists(_ context.Context, ownerPhone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.OwnerPhone == ownerPhone {
			return true, nil
		}
	}
	return false, nil
}

// VoteStore

func (f *fakeStore) CommitBallot(_ context.Context, votes []*models.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range votes {
		if _, exists := f.votes[voteKey(v.VoterPhone, v.Round, v.Points)]; exists {
			return repository.ErrDuplicateVote
		}
	}
	for _, v := range votes {
		cp := *v
		f.votes[voteKey(v.VoterPhone, v.Round, v.Points)] = &cp
		if e, ok := f.entries[v.EntryID]; ok {
			e.Score += v.Points
		}
	}
	f.setVoterFlagLocked(votes[0].VoterPhone, votes[0].Round)
	return nil
}

func (f *fakeStore) MoveVote(_ context.Context, vote *models.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := voteKey(vote.VoterPhone, vote.Round, vote.Points)
	if prev, ok := f.votes[key]; ok {
		if e, found := f.entries[prev.EntryID]; found {
			e.Score -= prev.Points
		}
		delete(f.votes, key)
	}
	cp := *vote
	f.votes[key] = &cp
	if e, ok := f.entries[vote.EntryID]; ok {
		e.Score += vote.Points
	}
	f.setVoterFlagLocked(vote.VoterPhone, vote.Round)
	return nil
}

func (f *fakeStore) HasVoted(_ context.Context, voterPhone string, round int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.votes {
		if v.VoterPhone == voterPhone && v.Round == round {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) setVoterFlagLocked(phone string, round int) {
	v, ok := f.voters[phone]
	if !ok {
		v = &models.Voter{Phone: phone}
		f.voters[phone] = v
	}
	if round == models.RoundFinal {
		v.VotedFinal = true
	} else {
		v.VotedRound1 = true
	}
	v.UpdatedAt = time.Now()
}

// VoterStore

func (f *fakeStore) GetByPhone(_ context.Context, phone string) (*models.Voter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.voters[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) VotedInRound(_ context.Context, phone string, round int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.voters[phone]
	if !ok {
		return false, nil
	}
	if round == models.RoundFinal {
		return v.VotedFinal, nil
	}
	return v.VotedRound1, nil
}

// PhaseStore

func (f *fakeStore) Get(_ context.Context) (*models.PhaseState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := f.state
	return &cp, nil
}

func (f *fakeStore) SetPhase(_ context.Context, phase models.Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.state.Phase = phase
	switch phase {
	case models.PhaseVoting:
		f.state.VotingStartedAt = &now
	case models.PhaseFinals:
		f.state.FinalsStartedAt = &now
	case models.PhaseEnded:
		f.state.EndedAt = &now
	}
	f.state.UpdatedAt = now
	return nil
}

func (f *fakeStore) SetVotingOpensAt(_ context.Context, t *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.VotingOpensAt = t
	f.state.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) PromoteFinalists(_ context.Context, n int) ([]*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		e.Finalist = false
	}
	ranked := f.rankedLocked()
	if n > len(ranked) {
		n = len(ranked)
	}
	finalists := ranked[:n]
	for _, fe := range finalists {
		f.entries[fe.ID].Finalist = true
		fe.Finalist = true
	}
	now := time.Now()
	f.state.Phase = models.PhaseFinals
	f.state.FinalsStartedAt = &now
	f.state.UpdatedAt = now
	return finalists, nil
}

func (f *fakeStore) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]*models.Entry)
	f.votes = make(map[string]*models.Vote)
	f.voters = make(map[string]*models.Voter)
	f.state = models.PhaseState{Phase: models.PhaseUpload, UpdatedAt: time.Now()}
	return nil
}

// helpers

func (f *fakeStore) addEntry(id, ownerPhone, title string, score int) *models.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &models.Entry{
		ID:          id,
		OwnerPhone:  ownerPhone,
		DisplayName: "Owner of " + title,
		Title:       title,
		ImageURL:    "https://img.example/" + id + ".jpg",
		ImageKey:    "entries/" + ownerPhone + "/" + id + ".jpg",
		Score:       score,
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	}
	f.entries[id] = e
	return e
}

func (f *fakeStore) voteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.votes)
}

func (f *fakeStore) entryScore(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[id]; ok {
		return e.Score
	}
	return -1
}

func (f *fakeStore) scoreSums() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sums := make(map[string]int)
	for _, v := range f.votes {
		sums[v.EntryID] += v.Points
	}
	return sums
}

// fakeBlobStore records uploads and deletes; failures are switchable to
// exercise the best-effort delete paths.
type fakeBlobStore struct {
	mu         sync.Mutex
	uploads    []string
	deletes    []string
	failUpload error
	failDelete error
}

func (b *fakeBlobStore) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failUpload != nil {
		return "", b.failUpload
	}
	if body != nil {
		io.Copy(io.Discard, body)
	}
	b.uploads = append(b.uploads, key)
	return "https://blobs.example/" + key, nil
}

func (b *fakeBlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete != nil {
		return b.failDelete
	}
	b.deletes = append(b.deletes, key)
	return nil
}

func (b *fakeBlobStore) uploadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads)
}
