// Package breathing builds and plays the guided breathing exercise: a fixed
// number of timed "Inhale..." / "Exhale..." prompts followed by a completion
// message.
//
// Script builds the step list from the configured cycle count and phase
// durations. Player.Run emits each step and waits out its duration on an
// injectable timer, stopping early when the context is cancelled or the
// emit callback fails.
package breathing
