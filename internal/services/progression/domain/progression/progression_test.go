package progression

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLevelForMatchesCurve(t *testing.T) {
	for xp := 0; xp <= 200000; xp += 37 {
		want := 1 + int(math.Floor(math.Sqrt(float64(xp/100))))
		if got := LevelFor(xp); got != want {
			t.Fatalf("LevelFor(%d) = %d, want %d", xp, got, want)
		}
	}
}

func TestLevelForBoundaries(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1}, {99, 1}, {100, 2}, {399, 2}, {400, 3}, {900, 4}, {10000, 11},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.xp); got != tt.want {
			t.Fatalf("LevelFor(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func newPlayer(t *testing.T) player.Player {
	t.Helper()
	p, err := player.New("user-1", fixedNow)
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	return p
}

func TestAddExperienceZeroKeepsLevel(t *testing.T) {
	p := newPlayer(t)
	result, err := AddExperience(&p, 0, "", fixedNow)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if result.LeveledUp || p.Level != 1 {
		t.Fatalf("result = %+v, level = %d", result, p.Level)
	}
}

func TestAddExperienceRejectsNegative(t *testing.T) {
	p := newPlayer(t)
	if _, err := AddExperience(&p, -1, "", fixedNow); !errors.Is(err, ErrNegativeExperience) {
		t.Fatalf("err = %v, want negative experience", err)
	}
	if p.ExperiencePoints != 0 {
		t.Fatalf("xp = %d, want 0", p.ExperiencePoints)
	}
}

func TestAddExperienceMultiLevelJumpPaysOneBonus(t *testing.T) {
	p := newPlayer(t)
	startEuros := p.Balances[BonusCurrency]

	result, err := AddExperience(&p, 900, "boss", fixedNow)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if !result.LeveledUp || p.Level != 4 {
		t.Fatalf("result = %+v, level = %d", result, p.Level)
	}
	if result.Bonus == nil || result.Bonus.Amount != 200 || result.Bonus.Type != ledger.TypeLevelUp {
		t.Fatalf("bonus = %+v", result.Bonus)
	}
	if result.Bonus.Description != "Level up bonus for reaching level 4" {
		t.Fatalf("description = %q", result.Bonus.Description)
	}
	if p.Balances[BonusCurrency] != startEuros+200 {
		t.Fatalf("euros = %d, want %d", p.Balances[BonusCurrency], startEuros+200)
	}
}

func TestAddExperienceNeverLowersLevel(t *testing.T) {
	p := newPlayer(t)
	p.Level = 5
	p.ExperiencePoints = 100

	result, err := AddExperience(&p, 50, "", fixedNow)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if result.LeveledUp || p.Level != 5 || result.Bonus != nil {
		t.Fatalf("result = %+v, level = %d", result, p.Level)
	}
}

func TestAddExperienceCarriesReason(t *testing.T) {
	p := newPlayer(t)

	result, err := AddExperience(&p, 40, "  Completed mission: Crack the vault ", fixedNow)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if result.Points != 40 || result.Reason != "Completed mission: Crack the vault" {
		t.Fatalf("result = %+v", result)
	}
	if result.LeveledUp || result.Level != 1 {
		t.Fatalf("result = %+v, want level 1 without level up", result)
	}

	result, err = AddExperience(&p, 60, "boss", fixedNow)
	if err != nil {
		t.Fatalf("add experience: %v", err)
	}
	if !result.LeveledUp || result.Reason != "boss" || result.Points != 60 {
		t.Fatalf("result = %+v", result)
	}
}
