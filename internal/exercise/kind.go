// Package exercise implements the per-exercise repetition detectors.
//
// Each detector is a state machine over a single tracked signal (a joint
// angle or a normalized distance). Entering the mid-rep phase and completing
// a rep use different thresholds, so a signal hovering near one cutoff cannot
// produce repeated counts. Completed reps are further rate limited by a
// per-exercise cooldown evaluated against sample timestamps.
package exercise

import (
	"fmt"
	"strings"
)

// Kind identifies an exercise.
type Kind string

const (
	KindSquat       Kind = "squat"
	KindPushup      Kind = "pushup"
	KindJumpingJack Kind = "jumping_jack"
	KindCrunch      Kind = "crunch"
	KindCurl        Kind = "curl"
)

var kinds = []Kind{KindSquat, KindPushup, KindCrunch, KindJumpingJack, KindCurl}

var labels = map[Kind]string{
	KindSquat:       "Squat",
	KindPushup:      "Push-Up",
	KindJumpingJack: "Jumping Jack",
	KindCrunch:      "Crunch",
	KindCurl:        "Curl",
}

// Kinds returns every supported exercise in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Label returns the human-readable name of the exercise.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Valid reports whether k is a supported exercise.
func (k Kind) Valid() bool {
	_, ok := labels[k]
	return ok
}

// ParseKind accepts an exercise identifier ("jumping_jack") or its label
// ("Jumping Jack", "push-up"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := squash(s)
	for _, k := range kinds {
		if norm == squash(string(k)) {
			return k, nil
		}
	}
	if norm == "toetouch" {
		return KindCrunch, nil
	}
	return "", fmt.Errorf("unknown exercise %q", s)
}

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
