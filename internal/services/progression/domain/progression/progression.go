// Package progression maps experience points to levels and pays level-up
// bonuses.
package progression

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storyquest/internal/platform/errors"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/currency"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/ledger"
	"github.com/louisbranch/storyquest/internal/services/progression/domain/player"
)

const (
	// PointsPerLevelStep scales the square-root level curve.
	PointsPerLevelStep = 100
	// BonusPerLevel is multiplied by the reached level to size the bonus.
	BonusPerLevel = 50
	// BonusCurrency pays level-up bonuses.
	BonusCurrency = currency.Euros
)

// ErrNegativeExperience indicates an attempt to remove experience.
var ErrNegativeExperience = apperrors.New(apperrors.CodeInvalidAmount, "experience points must not be negative")

// LevelFor returns 1 + floor(sqrt(xp / 100)) using integer arithmetic.
func LevelFor(xp int) int {
	if xp < 0 {
		return 1
	}
	return 1 + isqrt(xp/PointsPerLevelStep)
}

// Result describes the outcome of AddExperience.
type Result struct {
	Points    int
	Reason    string
	LeveledUp bool
	Level     int
	Bonus     *ledger.Entry
}

// AddExperience grants points and levels the player up when the curve says
// so. The reason is carried on the result for the caller to record. Several
// levels gained at once pay a single bonus sized to the final level. The
// level never decreases.
func AddExperience(p *player.Player, points int, reason string, now time.Time) (Result, error) {
	if points < 0 {
		return Result{}, apperrors.Detail(ErrNegativeExperience, map[string]string{"points": strconv.Itoa(points)})
	}
	if p.Level < 1 {
		p.Level = 1
	}
	p.ExperiencePoints += points
	if points > 0 {
		p.UpdatedAt = now
	}

	result := Result{Points: points, Reason: strings.TrimSpace(reason), Level: p.Level}
	newLevel := LevelFor(p.ExperiencePoints)
	if newLevel <= p.Level {
		return result, nil
	}
	p.Level = newLevel
	entry, err := p.Credit(BonusCurrency, BonusPerLevel*newLevel, ledger.Memo{
		Type:        ledger.TypeLevelUp,
		Description: fmt.Sprintf("Level up bonus for reaching level %d", newLevel),
	}, now)
	if err != nil {
		return Result{}, err
	}
	result.LeveledUp, result.Level, result.Bonus = true, newLevel, &entry
	return result, nil
}

func isqrt(n int) int {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
