// Package gesture turns hand landmarks into finger counts: a per-hand
// classifier and the multi-hand aggregate shown by the counter display.
package gesture

import "github.com/ayusman/handplay/internal/detector"

// Handedness is the side of a hand as inferred from its landmarks.
type Handedness string

const (
	Right Handedness = "Right"
	Left  Handedness = "Left"
)

// HandednessOf infers the side of a hand for a mirrored camera: the hand is
// right when the thumb tip lies left of the pinky knuckle.
// The detector's own handedness label is not consulted.
func HandednessOf(hand *detector.HandLandmarks) Handedness {
	if hand.Points[detector.ThumbTip].X < hand.Points[detector.PinkyMCP].X {
		return Right
	}
	return Left
}

// Digit identifies one of the five digits.
type Digit int

const (
	Thumb Digit = iota
	Index
	Middle
	Ring
	Pinky
)

var digitNames = [...]string{"thumb", "index", "middle", "ring", "pinky"}

func (d Digit) String() string {
	if d < Thumb || d > Pinky {
		return "unknown"
	}
	return digitNames[d]
}

// fingerJoints maps each non-thumb digit to its tip and PIP landmarks.
var fingerJoints = [...]struct {
	digit    Digit
	tip, pip int
}{
	{Index, detector.IndexTip, detector.IndexPIP},
	{Middle, detector.MiddleTip, detector.MiddlePIP},
	{Ring, detector.RingTip, detector.RingPIP},
	{Pinky, detector.PinkyTip, detector.PinkyPIP},
}

// DigitState records which digits are extended, indexed by Digit.
type DigitState [5]bool

// Count returns the number of extended digits.
func (s DigitState) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// Digits classifies each digit of a hand as extended or not.
//
// A finger is extended when its tip is strictly above its PIP joint. The
// thumb is extended when its tip lies outward of its IP joint, where outward
// depends on the inferred handedness. There is no hysteresis between calls.
func Digits(hand *detector.HandLandmarks) DigitState {
	var state DigitState

	tip := hand.Points[detector.ThumbTip].X
	ip := hand.Points[detector.ThumbIP].X
	if HandednessOf(hand) == Right {
		state[Thumb] = tip < ip
	} else {
		state[Thumb] = tip > ip
	}

	for _, f := range fingerJoints {
		state[f.digit] = hand.Points[f.tip].Y < hand.Points[f.pip].Y
	}

	return state
}

// CountFingers returns the number of extended digits on a hand, in 0..5.
func CountFingers(hand *detector.HandLandmarks) int {
	return Digits(hand).Count()
}
