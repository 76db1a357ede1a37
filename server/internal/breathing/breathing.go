package breathing

import (
	"context"
	"encoding/json"
	"time"
)

// Phase names a step of the exercise.
type Phase string

const (
	PhaseInhale   Phase = "inhale"
	PhaseExhale   Phase = "exhale"
	PhaseComplete Phase = "complete"
)

// Step is one prompt and how long it stays on screen.
type Step struct {
	Phase    Phase         `json:"phase"`
	Text     string        `json:"text"`
	Cycle    int           `json:"cycle"` // 1-based; 0 for the completion step
	Duration time.Duration `json:"-"`
}

// Millis returns the step duration in whole milliseconds.
func (s Step) Millis() int64 {
	return s.Duration.Milliseconds()
}

// MarshalJSON adds duration_ms so browser clients can animate the prompt.
func (s Step) MarshalJSON() ([]byte, error) {
	type plain Step
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(s), s.Millis()})
}

// Script returns cycles inhale/exhale pairs followed by the completion step.
func Script(cycles int, inhale, exhale time.Duration) []Step {
	steps := make([]Step, 0, cycles*2+1)
	for i := 1; i <= cycles; i++ {
		steps = append(steps,
			Step{Phase: PhaseInhale, Text: "Inhale...", Cycle: i, Duration: inhale},
			Step{Phase: PhaseExhale, Text: "Exhale...", Cycle: i, Duration: exhale},
		)
	}
	return append(steps, Step{Phase: PhaseComplete, Text: "Breathing Complete!"})
}

// TotalDuration is the sum of every step duration in steps.
func TotalDuration(steps []Step) time.Duration {
	var d time.Duration
	for _, s := range steps {
		d += s.Duration
	}
	return d
}

// Player emits the steps of a script with the right pauses in between.
type Player struct {
	after func(time.Duration) <-chan time.Time // injectable for tests
}

// NewPlayer returns a Player that waits on the wall clock.
func NewPlayer() *Player {
	return &Player{after: time.After}
}

// Run calls emit for every step, then waits for that step's duration before
// moving on. It returns ctx.Err() if ctx is cancelled mid-exercise, or the
// first error returned by emit.
func (p *Player) Run(ctx context.Context, steps []Step, emit func(Step) error) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(s); err != nil {
			return err
		}
		if s.Duration <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.after(s.Duration):
		}
	}
	return nil
}
