package boss

import (
	"testing"
	"time"

	"github.com/louisbranch/innercity/internal/game/player"
	"github.com/louisbranch/innercity/internal/platform/errors"
)

func testDirector() *Director {
	return NewDirector([]*Boss{
		{
			ID:      "burnout",
			Trigger: Trigger{Type: TriggerPattern, Counter: "sessions_without_rest"},
			Effects: Effects{
				Penalty:           5,
				FogIncrease:       0.6,
				DistrictsAffected: []string{"oasis"},
				Blocks:            []string{"push_harder"},
			},
			DefeatConditions: []DefeatCondition{
				{Type: DefeatSeries, Action: "rest", Count: 3},
				{Type: DefeatCard, CardID: "calm_anchor"},
			},
			Dialogue: Dialogue{Appearance: "You cannot outrun me.", Defeat: "I will wait."},
		},
		{
			ID:      "perfectionist",
			Trigger: Trigger{Type: TriggerPattern, Counter: "tasks_abandoned", Threshold: 2},
			Effects: Effects{Blocks: []string{"redo_task", "polish_more"}},
			DefeatConditions: []DefeatCondition{
				{Type: DefeatFullSession, District: "garden"},
			},
		},
		{
			ID:      "shadow",
			Trigger: Trigger{Type: TriggerMilestone, ActsCompleted: 2},
			Finale:  true,
		},
	})
}

func newPlayer() *player.State {
	return player.NewState("p1", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
}

func TestCheckSpawnPattern(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if b := d.CheckSpawn(st); b != nil {
		t.Fatalf("fresh player should spawn nothing, got %s", b.ID)
	}

	// Default threshold is 3 when unspecified.
	st.Counters["sessions_without_rest"] = 2
	if b := d.CheckSpawn(st); b != nil {
		t.Fatalf("below threshold should spawn nothing, got %s", b.ID)
	}
	st.Counters["sessions_without_rest"] = 3
	b := d.CheckSpawn(st)
	if b == nil || b.ID != "burnout" {
		t.Fatalf("CheckSpawn = %+v", b)
	}

	// Explicit threshold.
	st.Counters["sessions_without_rest"] = 0
	st.Counters["tasks_abandoned"] = 2
	b = d.CheckSpawn(st)
	if b == nil || b.ID != "perfectionist" {
		t.Fatalf("CheckSpawn = %+v", b)
	}
}

func TestCheckSpawnDeclarationOrder(t *testing.T) {
	d := testDirector()
	st := newPlayer()
	st.Counters["sessions_without_rest"] = 5
	st.Counters["tasks_abandoned"] = 5

	b := d.CheckSpawn(st)
	if b == nil || b.ID != "burnout" {
		t.Fatalf("first declared match should win, got %+v", b)
	}
}

func TestCheckSpawnMilestone(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	for _, district := range st.Districts {
		district.Level = 3
	}
	st.ActsCompleted = 1
	if b := d.CheckSpawn(st); b != nil {
		t.Fatalf("acts below minimum should spawn nothing, got %s", b.ID)
	}

	st.ActsCompleted = 2
	b := d.CheckSpawn(st)
	if b == nil || b.ID != "shadow" {
		t.Fatalf("CheckSpawn = %+v", b)
	}

	st.Districts["forum"].Level = 2
	if b := d.CheckSpawn(st); b != nil {
		t.Fatalf("a district below the floor should spawn nothing, got %s", b.ID)
	}
}

func TestCheckSpawnSkipsActive(t *testing.T) {
	d := testDirector()
	st := newPlayer()
	st.Counters["sessions_without_rest"] = 3

	if _, err := d.Spawn("burnout", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	// Unchanged state, repeated checks: burnout stays active and never
	// matches again.
	for i := 0; i < 3; i++ {
		if b := d.CheckSpawn(st); b != nil {
			t.Fatalf("active boss matched again: %s", b.ID)
		}
	}
}

func TestSpawnAppliesEffects(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	result, err := d.Spawn("burnout", st)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if result.Message != "You cannot outrun me." {
		t.Fatalf("message = %q", result.Message)
	}
	if !st.BossActive("burnout") {
		t.Fatal("boss should be active after spawn")
	}
	if st.BossPenalties["burnout"] != 5 {
		t.Fatalf("penalty = %d", st.BossPenalties["burnout"])
	}
	if st.Districts["oasis"].Fog != 0.6 {
		t.Fatalf("oasis fog = %v", st.Districts["oasis"].Fog)
	}
	if st.Districts["citadel"].Fog != 0 {
		t.Fatal("unaffected district fog should not change")
	}
	blocked := st.BlockedOptions["burnout"]
	if len(blocked) != 1 || blocked[0] != "push_harder" {
		t.Fatalf("blocked = %v", blocked)
	}
}

func TestSpawnFogDefaultsToAllDistricts(t *testing.T) {
	d := NewDirector([]*Boss{{
		ID:      "smog",
		Trigger: Trigger{Type: TriggerPattern, Counter: "x"},
		Effects: Effects{FogIncrease: 0.5},
	}})
	st := newPlayer()

	if _, err := d.Spawn("smog", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	for districtID, district := range st.Districts {
		if district.Fog != 0.5 {
			t.Fatalf("district %s fog = %v", districtID, district.Fog)
		}
	}
}

func TestSpawnIdempotent(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if _, err := d.Spawn("burnout", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	result, err := d.Spawn("burnout", st)
	if err != nil {
		t.Fatalf("repeat Spawn: %v", err)
	}
	if !result.AlreadyActive {
		t.Fatal("repeat spawn should report already active")
	}
	if len(st.ActiveBosses) != 1 {
		t.Fatalf("active bosses = %v", st.ActiveBosses)
	}
}

func TestSpawnUnknownBoss(t *testing.T) {
	d := testDirector()
	st := newPlayer()
	if _, err := d.Spawn("missing", st); errors.CodeOf(err) != errors.CodeBossNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckDefeatAlternatives(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if d.CheckDefeat("burnout", st) {
		t.Fatal("no condition holds yet")
	}

	st.Counters["rest_series"] = 3
	if !d.CheckDefeat("burnout", st) {
		t.Fatal("series condition should defeat")
	}

	st.Counters["rest_series"] = 0
	st.LastCardUsed = "calm_anchor"
	if !d.CheckDefeat("burnout", st) {
		t.Fatal("card condition should defeat")
	}

	st.LastCardUsed = ""
	st.LastSessionDistrict = "garden"
	if !d.CheckDefeat("perfectionist", st) {
		t.Fatal("full session condition should defeat")
	}
	if d.CheckDefeat("missing", st) {
		t.Fatal("unknown boss never defeats")
	}
}

func TestDefeatClearsOnlyOwnBlocks(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if _, err := d.Spawn("burnout", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := d.Spawn("perfectionist", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	result, err := d.Defeat("burnout", st)
	if err != nil {
		t.Fatalf("Defeat: %v", err)
	}
	if result.Message != "I will wait." {
		t.Fatalf("message = %q", result.Message)
	}
	if st.BossActive("burnout") {
		t.Fatal("defeated boss should leave the active set")
	}
	if _, kept := st.BossPenalties["burnout"]; kept {
		t.Fatal("penalty should be cleared")
	}
	if _, kept := st.BlockedOptions["burnout"]; kept {
		t.Fatal("defeated boss's blocks should be cleared")
	}
	if len(st.BlockedOptions["perfectionist"]) != 2 {
		t.Fatal("other bosses' blocks must survive")
	}

	if st.StabilityPoints != 20 || st.Effort != 5 {
		t.Fatalf("rewards: stability=%d effort=%d", st.StabilityPoints, st.Effort)
	}
	if len(st.Achievements) != 1 || st.Achievements[0] != "defeated_burnout" {
		t.Fatalf("achievements = %v", st.Achievements)
	}
	if st.FinaleUnlocked {
		t.Fatal("non-finale defeat must not unlock the finale")
	}
}

func TestDefeatFinaleUnlocks(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if _, err := d.Spawn("shadow", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	result, err := d.Defeat("shadow", st)
	if err != nil {
		t.Fatalf("Defeat: %v", err)
	}
	if !result.FinaleUnlocked || !st.FinaleUnlocked {
		t.Fatal("finale boss defeat should unlock the terminal mode")
	}
	if st.BossActive("shadow") {
		t.Fatal("finale boss should leave the active set")
	}
}

func TestDefeatUnknownBoss(t *testing.T) {
	d := testDirector()
	st := newPlayer()
	if _, err := d.Defeat("missing", st); errors.CodeOf(err) != errors.CodeBossNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestBlockedOptionsFlattened(t *testing.T) {
	d := testDirector()
	st := newPlayer()

	if d.BlockedOptions(st) != nil {
		t.Fatal("no active bosses, no blocks")
	}

	if _, err := d.Spawn("burnout", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if _, err := d.Spawn("perfectionist", st); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	blocked := d.BlockedOptions(st)
	want := []string{"push_harder", "redo_task", "polish_more"}
	if len(blocked) != len(want) {
		t.Fatalf("blocked = %v", blocked)
	}
	for i := range want {
		if blocked[i] != want[i] {
			t.Fatalf("blocked = %v, want %v", blocked, want)
		}
	}
}

func TestGetCopiesDoNotAliasDirector(t *testing.T) {
	d := testDirector()
	b := d.Get("burnout")
	b.Effects.Blocks[0] = "mutated"
	b.DefeatConditions[0].Count = 99

	fresh := d.Get("burnout")
	if fresh.Effects.Blocks[0] != "push_harder" || fresh.DefeatConditions[0].Count != 3 {
		t.Fatal("director content mutated through a returned copy")
	}
}
