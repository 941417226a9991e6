package player

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestNewStateDefaults(t *testing.T) {
	st := NewState("p1", testNow)
	if st.PlayerID != "p1" {
		t.Fatalf("PlayerID = %q", st.PlayerID)
	}
	if len(st.Districts) != 5 {
		t.Fatalf("districts = %d, want 5", len(st.Districts))
	}
	if st.Districts["forum"].Unlocked {
		t.Fatal("forum should start locked")
	}
	if !st.Districts["oasis"].Unlocked {
		t.Fatal("oasis should start unlocked")
	}
	if st.OwnedCards == nil || st.Counters == nil || st.TrajectoryPaths == nil {
		t.Fatal("collections should be initialised")
	}
}

func TestMigrateBackfillsMissingCollections(t *testing.T) {
	st := &State{PlayerID: "legacy"}
	Migrate(st)
	if st.Districts == nil || st.DistrictSessions == nil || st.BlockedOptions == nil {
		t.Fatal("Migrate should backfill nil maps")
	}
	if st.OwnedCards == nil || st.ActiveBosses == nil || st.Rituals == nil || st.Goals == nil {
		t.Fatal("Migrate should backfill nil slices")
	}
}

func TestCanStartSessionCooldown(t *testing.T) {
	st := NewState("p1", testNow)

	ok, _ := CanStartSession(st, testNow, 4*time.Hour)
	if !ok {
		t.Fatal("first session should always be allowed")
	}

	last := testNow.Add(-time.Hour)
	st.LastSessionTime = &last
	ok, remaining := CanStartSession(st, testNow, 4*time.Hour)
	if ok {
		t.Fatal("session within cooldown should be denied")
	}
	if remaining != 3*time.Hour {
		t.Fatalf("remaining = %v, want 3h", remaining)
	}

	ok, _ = CanStartSession(st, testNow.Add(4*time.Hour), 4*time.Hour)
	if !ok {
		t.Fatal("session after cooldown should be allowed")
	}

	ok, _ = CanStartSession(st, testNow, 0)
	if !ok {
		t.Fatal("zero cooldown should always allow")
	}
}

func TestStartSessionUnknownDistrict(t *testing.T) {
	st := NewState("p1", testNow)
	if _, err := StartSession(st, "atlantis", "calm", 3, testNow); err == nil {
		t.Fatal("expected error for unknown district")
	}
}

func TestCompleteSessionProgression(t *testing.T) {
	st := NewState("p1", testNow)
	session, err := StartSession(st, "oasis", "calm", 3, testNow)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	session.LevelID = "oasis_l1"
	session.Act = 1

	summary := CompleteSession(st, &session, 15, testNow.Add(20*time.Minute))

	if !session.Completed || session.CompletedAt == nil {
		t.Fatal("session should be marked completed")
	}
	if summary.Points != 15 || summary.TotalPoints != 15 {
		t.Fatalf("summary = %+v", summary)
	}
	if st.DistrictSessions["oasis"] != 1 {
		t.Fatalf("district sessions = %d, want 1", st.DistrictSessions["oasis"])
	}
	if st.Districts["oasis"].Level != 1 || st.Districts["oasis"].SessionsCount != 1 {
		t.Fatalf("district state = %+v", st.Districts["oasis"])
	}
	if !st.HasCompletedLevel("oasis_l1") {
		t.Fatal("level should be recorded as completed")
	}
	if st.ActsCompleted != 1 {
		t.Fatalf("acts = %d, want 1", st.ActsCompleted)
	}

	// Completing the same level again must not duplicate it.
	again := session
	CompleteSession(st, &again, 15, testNow.Add(time.Hour))
	if got := len(st.CompletedLevels); got != 1 {
		t.Fatalf("completed levels = %d, want 1", got)
	}
}

func TestCheckUnlocksForum(t *testing.T) {
	st := NewState("p1", testNow)
	if unlocked := CheckUnlocks(st, 50); unlocked != nil {
		t.Fatalf("unexpected unlocks below threshold: %v", unlocked)
	}

	st.StabilityPoints = 50
	unlocked := CheckUnlocks(st, 50)
	if len(unlocked) != 1 || unlocked[0] != "forum" {
		t.Fatalf("unlocked = %v, want [forum]", unlocked)
	}
	if !st.Districts["forum"].Unlocked {
		t.Fatal("forum should now be unlocked")
	}

	// Idempotent once unlocked.
	if unlocked := CheckUnlocks(st, 50); unlocked != nil {
		t.Fatalf("second check should unlock nothing, got %v", unlocked)
	}
}

func TestGrantCardDeduplicates(t *testing.T) {
	st := NewState("p1", testNow)
	if !st.GrantCard("card_a") {
		t.Fatal("first grant should succeed")
	}
	if st.GrantCard("card_a") {
		t.Fatal("duplicate grant should be rejected")
	}
	if len(st.OwnedCards) != 1 {
		t.Fatalf("owned = %v", st.OwnedCards)
	}
	st.RemoveCard("card_a")
	if st.OwnsCard("card_a") {
		t.Fatal("card should be removed")
	}
}

func TestAddRitualStampsCreation(t *testing.T) {
	st := NewState("p1", testNow)
	ritual := AddRitual(st, Ritual{Name: "morning walk", District: "oasis"}, testNow)
	if !ritual.CreatedAt.Equal(testNow) {
		t.Fatalf("CreatedAt = %v", ritual.CreatedAt)
	}
	if len(st.Rituals) != 1 || st.Rituals[0].Name != "morning walk" {
		t.Fatalf("rituals = %v", st.Rituals)
	}
}

func TestAddGoalStartsIncomplete(t *testing.T) {
	st := NewState("p1", testNow)
	goal := AddGoal(st, Goal{Name: "sleep by midnight", Completed: true}, testNow)
	if goal.Completed {
		t.Fatal("new goals must start incomplete")
	}
	if len(st.Goals) != 1 || st.Goals[0].Completed {
		t.Fatalf("goals = %v", st.Goals)
	}
}
