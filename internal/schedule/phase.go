package schedule

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// PhaseName identifies a stage of the training program.
type PhaseName string

const (
	PhaseInitial     PhaseName = "initial"
	PhaseMaintenance PhaseName = "maintenance"
)

// Phase carries the daily quota limits that apply to a participant.
type Phase struct {
	Name                  PhaseName `json:"name"`
	MaxNewQuestionsPerDay int       `json:"max_new_questions_per_day"`
	MaxMemoryChecksPerDay int       `json:"max_memory_checks_per_day"`
}

// InitialPhaseDays is the default length of the initial phase.
const InitialPhaseDays = 30

// Policy maps days since diagnosis to a Phase.
type Policy struct {
	InitialPhaseDays int
	Initial          Phase
	Maintenance      Phase
}

// DefaultPolicy returns the standard two-phase policy.
func DefaultPolicy() Policy {
	return Policy{
		InitialPhaseDays: InitialPhaseDays,
		Initial: Phase{
			Name:                  PhaseInitial,
			MaxNewQuestionsPerDay: 2,
			MaxMemoryChecksPerDay: 0,
		},
		Maintenance: Phase{
			Name:                  PhaseMaintenance,
			MaxNewQuestionsPerDay: 1,
			MaxMemoryChecksPerDay: 1,
		},
	}
}

// PolicyFromEnv builds a Policy from MEMOIR_INITIAL_PHASE_DAYS, falling
// back to defaults for unset or unparsable values.
func PolicyFromEnv() Policy {
	p := DefaultPolicy()
	if v := os.Getenv("MEMOIR_INITIAL_PHASE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.InitialPhaseDays = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_INITIAL_PHASE_DAYS=%q: %v\n", v, err)
		}
	}
	return p
}

// Validate checks that the policy's limits are usable.
func (p Policy) Validate() error {
	if p.InitialPhaseDays < 0 {
		return fmt.Errorf("initial phase days must be >= 0, got %d", p.InitialPhaseDays)
	}
	for _, ph := range []Phase{p.Initial, p.Maintenance} {
		if ph.MaxNewQuestionsPerDay < 0 || ph.MaxMemoryChecksPerDay < 0 {
			return fmt.Errorf("phase %s: daily limits must be >= 0", ph.Name)
		}
	}
	return nil
}

// ClassifyPhase returns the phase for the given number of days since
// diagnosis.
func (p Policy) ClassifyPhase(daysSinceDiagnosis int) Phase {
	if daysSinceDiagnosis < p.InitialPhaseDays {
		return p.Initial
	}
	return p.Maintenance
}

// ClassifyPhase classifies with DefaultPolicy.
func ClassifyPhase(daysSinceDiagnosis int) Phase {
	return DefaultPolicy().ClassifyPhase(daysSinceDiagnosis)
}

// DaysSinceDiagnosis counts whole calendar days from diagnosis to today.
// It is negative if today precedes the diagnosis date.
func DaysSinceDiagnosis(diagnosis, today time.Time) int {
	return int(store.Day(today).Sub(store.Day(diagnosis)).Hours() / 24)
}
