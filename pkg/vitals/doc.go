// Package vitals holds the stress classification rule and the trailing
// heart-rate window shared by the server and the web UI.
//
// classify.go provides the pure Classify(Reading) and Assess(Reading)
// functions. A reading is Stressed when any one of three independent checks
// trips (all comparisons strict):
//
//	heart_rate > 100
//	systolic_bp > 140 || diastolic_bp > 90
//	blood_sugar > 180 || blood_sugar < 70
//
// history.go provides History, a fixed five-slot window of heart-rate values.
// Append returns a new window with the oldest value dropped; the argument is
// never mutated, so callers own their state explicitly.
//
// Neither function validates its input. Reading.Validate enforces the input
// ranges and is called by the session layer before classification.
package vitals
