package gesture

import (
	"testing"

	"github.com/ayusman/handplay/internal/detector"
)

func TestCountFingers_Presets(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want int
	}{
		{"fist", detector.FistLandmarks(), 0},
		{"open palm", detector.OpenPalmLandmarks(), 5},
		{"mirrored fist", detector.MirrorLandmarks(detector.FistLandmarks()), 0},
		{"mirrored open palm", detector.MirrorLandmarks(detector.OpenPalmLandmarks()), 5},
		{"index only", detector.PoseLandmarks([5]bool{false, true, false, false, false}), 1},
		{"peace", detector.PoseLandmarks([5]bool{false, true, true, false, false}), 2},
		{"thumb and pinky", detector.PoseLandmarks([5]bool{true, false, false, false, true}), 2},
		{"four fingers", detector.PoseLandmarks([5]bool{false, true, true, true, true}), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := tt.hand
			if got := CountFingers(&hand); got != tt.want {
				t.Errorf("CountFingers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountFingers_EveryPose(t *testing.T) {
	for mask := 0; mask < 32; mask++ {
		var extended [5]bool
		want := 0
		for d := 0; d < 5; d++ {
			if mask&(1<<d) != 0 {
				extended[d] = true
				want++
			}
		}

		hand := detector.PoseLandmarks(extended)
		state := Digits(&hand)
		for d := 0; d < 5; d++ {
			if state[d] != extended[d] {
				t.Errorf("mask %05b: %s extended = %v, want %v", mask, Digit(d), state[d], extended[d])
			}
		}
		if got := CountFingers(&hand); got != want {
			t.Errorf("mask %05b: CountFingers() = %d, want %d", mask, got, want)
		}
	}
}

func TestCountFingers_ThumbAndIndexScenario(t *testing.T) {
	hand := detector.FistLandmarks()
	hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.40, Y: 0.60}
	hand.Points[detector.ThumbIP] = detector.Point3D{X: 0.45, Y: 0.64}
	hand.Points[detector.PinkyMCP] = detector.Point3D{X: 0.60, Y: 0.64}
	hand.Points[detector.IndexTip] = detector.Point3D{X: 0.44, Y: 0.20}
	hand.Points[detector.IndexPIP] = detector.Point3D{X: 0.44, Y: 0.30}

	if got := HandednessOf(&hand); got != Right {
		t.Fatalf("HandednessOf() = %s, want Right", got)
	}
	if got := CountFingers(&hand); got != 2 {
		t.Errorf("CountFingers() = %d, want 2", got)
	}
}

func TestCountFingers_TipLevelWithPIP(t *testing.T) {
	hand := detector.FistLandmarks()
	hand.Points[detector.MiddleTip].Y = hand.Points[detector.MiddlePIP].Y

	if Digits(&hand)[Middle] {
		t.Error("a tip level with its PIP should not count as extended")
	}
}

func TestCountFingers_Pure(t *testing.T) {
	hand := detector.PoseLandmarks([5]bool{true, false, true, false, true})
	before := hand

	first := CountFingers(&hand)
	for i := 0; i < 10; i++ {
		if got := CountFingers(&hand); got != first {
			t.Fatalf("call %d returned %d, first returned %d", i, got, first)
		}
	}
	if hand != before {
		t.Error("CountFingers modified its input")
	}
}

func TestHandedness_FlipOnlyAffectsThumb(t *testing.T) {
	hand := detector.PoseLandmarks([5]bool{true, true, false, true, false})
	right := Digits(&hand)

	// move the pinky knuckle to the thumb's side so the hand reads as left
	flipped := hand
	flipped.Points[detector.PinkyMCP].X = 0.0
	if HandednessOf(&flipped) != Left {
		t.Fatal("expected flipped hand to read as left")
	}
	left := Digits(&flipped)

	for d := Index; d <= Pinky; d++ {
		if left[d] != right[d] {
			t.Errorf("%s changed with handedness: %v -> %v", d, right[d], left[d])
		}
	}
	if left[Thumb] == right[Thumb] {
		t.Error("thumb rule should invert with handedness")
	}
}

func TestDigitString(t *testing.T) {
	if Thumb.String() != "thumb" || Pinky.String() != "pinky" {
		t.Error("unexpected digit names")
	}
	if Digit(9).String() != "unknown" {
		t.Error("expected unknown for out of range digit")
	}
}
