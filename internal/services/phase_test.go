package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"costume-vote-backend/internal/models"
)

func TestSetPhaseStampsTimestamps(t *testing.T) {
	store := newFakeStore()
	svc := NewPhaseService(store, store, &fakeBlobStore{})
	ctx := context.Background()

	state, err := svc.SetPhase(ctx, models.PhaseVoting)
	if err != nil {
		t.Fatalf("failed to set phase: %v", err)
	}
	if state.Phase != models.PhaseVoting {
		t.Errorf("phase = %s, want voting", state.Phase)
	}
	if state.VotingStartedAt == nil {
		t.Error("voting_started_at not stamped")
	}
	if state.FinalsStartedAt != nil || state.EndedAt != nil {
		t.Error("unrelated timestamps stamped")
	}

	// Admin override may force any phase, including backwards.
	state, err = svc.SetPhase(ctx, models.PhaseUpload)
	if err != nil {
		t.Fatalf("failed to rewind phase: %v", err)
	}
	if state.Phase != models.PhaseUpload {
		t.Errorf("phase = %s, want upload after rewind", state.Phase)
	}
	if state.VotingStartedAt == nil {
		t.Error("voting_started_at lost on rewind")
	}
}

func TestScheduleVotingOpenIsAdvisory(t *testing.T) {
	store := newFakeStore()
	svc := NewPhaseService(store, store, &fakeBlobStore{})
	ctx := context.Background()

	opens := time.Now().Add(time.Hour)
	state, err := svc.ScheduleVotingOpen(ctx, &opens)
	if err != nil {
		t.Fatalf("failed to schedule: %v", err)
	}
	if state.VotingOpensAt == nil || !state.VotingOpensAt.Equal(opens) {
		t.Errorf("voting_opens_at = %v, want %v", state.VotingOpensAt, opens)
	}
	// The schedule never flips the phase by itself.
	if state.Phase != models.PhaseUpload {
		t.Errorf("phase = %s, want upload", state.Phase)
	}
}

func TestTriggerFinals(t *testing.T) {
	ctx := context.Background()

	t.Run("not enough participants", func(t *testing.T) {
		store := newFakeStore()
		store.addEntry("a", "0501", "A", 5)
		store.addEntry("b", "0502", "B", 3)
		svc := NewPhaseService(store, store, &fakeBlobStore{})

		_, err := svc.TriggerFinals(ctx)
		var rej *Rejection
		if !errors.As(err, &rej) || rej.Code != ErrNotEnoughEntries.Code {
			t.Fatalf("expected not-enough-participants rejection, got %v", err)
		}
		if state, _ := store.Get(ctx); state.Phase != models.PhaseUpload {
			t.Errorf("phase changed despite rejection: %s", state.Phase)
		}
	})

	t.Run("flags exactly the top three", func(t *testing.T) {
		store := newFakeStore()
		store.addEntry("a", "0501", "A", 30)
		store.addEntry("b", "0502", "B", 20)
		store.addEntry("c", "0503", "C", 10)
		store.addEntry("d", "0504", "D", 5)
		// Stale flag from a previous run must be cleared.
		store.entries["d"].Finalist = true
		svc := NewPhaseService(store, store, &fakeBlobStore{})

		finalists, err := svc.TriggerFinals(ctx)
		if err != nil {
			t.Fatalf("failed to trigger finals: %v", err)
		}
		if len(finalists) != models.FinalistCount {
			t.Fatalf("finalists = %d, want %d", len(finalists), models.FinalistCount)
		}
		want := map[string]bool{"a": true, "b": true, "c": true}
		for _, f := range finalists {
			if !want[f.ID] {
				t.Errorf("unexpected finalist %s", f.ID)
			}
		}

		all, _ := store.ListByRank(ctx)
		for _, e := range all {
			if e.Finalist != want[e.ID] {
				t.Errorf("entry %s finalist = %v, want %v", e.ID, e.Finalist, want[e.ID])
			}
		}

		state, _ := store.Get(ctx)
		if state.Phase != models.PhaseFinals {
			t.Errorf("phase = %s, want finals", state.Phase)
		}
		if state.FinalsStartedAt == nil {
			t.Error("finals_started_at not stamped")
		}
	})
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, blobs *fakeBlobStore) (*PhaseService, *fakeStore) {
		store := newFakeStore()
		store.addEntry("a", "0501", "A", 0)
		store.addEntry("b", "0502", "B", 0)
		store.addEntry("c", "0503", "C", 0)
		if err := store.SetPhase(ctx, models.PhaseVoting); err != nil {
			t.Fatalf("failed to set phase: %v", err)
		}
		voting := NewVotingService(store, store, store, store)
		if _, err := voting.SubmitBallot(ctx, "0509999999", models.RoundFirst, []VoteSubmission{
			{EntryID: "a", Points: 12},
			{EntryID: "b", Points: 10},
			{EntryID: "c", Points: 8},
		}); err != nil {
			t.Fatalf("seed ballot failed: %v", err)
		}
		return NewPhaseService(store, store, blobs), store
	}

	t.Run("wipes everything", func(t *testing.T) {
		blobs := &fakeBlobStore{}
		svc, store := setup(t, blobs)

		if err := svc.ResetAll(ctx); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
		if got := store.voteCount(); got != 0 {
			t.Errorf("vote rows = %d, want 0", got)
		}
		if all, _ := store.ListByRank(ctx); len(all) != 0 {
			t.Errorf("entries = %d, want 0", len(all))
		}
		if len(store.voters) != 0 {
			t.Errorf("voter records = %d, want 0", len(store.voters))
		}
		state, _ := store.Get(ctx)
		if state.Phase != models.PhaseUpload {
			t.Errorf("phase = %s, want upload", state.Phase)
		}
		if state.VotingStartedAt != nil || state.FinalsStartedAt != nil || state.EndedAt != nil || state.VotingOpensAt != nil {
			t.Error("timestamps not cleared")
		}
		if len(blobs.deletes) != 3 {
			t.Errorf("blob deletes = %d, want 3", len(blobs.deletes))
		}
	})

	t.Run("blob failures never block the reset", func(t *testing.T) {
		blobs := &fakeBlobStore{failDelete: errors.New("bucket gone")}
		svc, store := setup(t, blobs)

		if err := svc.ResetAll(ctx); err != nil {
			t.Fatalf("reset failed despite best-effort blob deletes: %v", err)
		}
		if all, _ := store.ListByRank(ctx); len(all) != 0 {
			t.Errorf("entries = %d, want 0", len(all))
		}
	})
}
