package schwarzschild

import (
	"fmt"
	"strings"
)

// HoleType selects the wording of an interpretation.
type HoleType string

const (
	BlackHole HoleType = "black"
	WhiteHole HoleType = "white"
)

// ParseHoleType accepts "black", "white" or "" (black).
func ParseHoleType(s string) (HoleType, error) {
	switch HoleType(strings.ToLower(strings.TrimSpace(s))) {
	case "", BlackHole:
		return BlackHole, nil
	case WhiteHole:
		return WhiteHole, nil
	default:
		return "", fmt.Errorf("unknown hole type %q, want black or white", s)
	}
}

// Describe renders a one-paragraph interpretation of res for the reader.
func Describe(kind HoleType, in Input, res Result) string {
	var b strings.Builder
	inside := res.Classification == AtOrInside

	switch kind {
	case WhiteHole:
		fmt.Fprintf(&b, "For a theoretical white hole with mass %g solar masses, the ejection horizon would be at %.2f km. ",
			in.Mass, res.HorizonRadius)
		b.WriteString("Unlike a black hole, matter can only move outward from this boundary. ")
		if inside {
			b.WriteString("You are inside the ejection horizon!")
		} else {
			fmt.Fprintf(&b, "You are %.2f km from the ejection horizon.", res.DistanceToHorizon())
		}
	default:
		fmt.Fprintf(&b, "At a distance of %g km from the center of a black hole with mass %g solar masses, spacetime is significantly curved. ",
			in.ObservationRadius, in.Mass)
		fmt.Fprintf(&b, "The event horizon is located at %.2f km. ", res.HorizonRadius)
		if inside {
			b.WriteString("You are inside the event horizon! Escape is impossible.")
		} else {
			fmt.Fprintf(&b, "You are %.2f km from the event horizon.", res.DistanceToHorizon())
		}
	}

	return b.String()
}

// Notes returns the short per-quantity remarks shown next to the numbers.
func Notes(a Assessment) []string {
	var notes []string
	if a.ExtremeTimeDilation {
		notes = append(notes, "Extreme time dilation detected!")
	}
	if a.ExtremeEscapeVelocity {
		notes = append(notes, "Extremely high escape velocity required!")
	}
	return notes
}
