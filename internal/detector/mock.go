package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// OpenPalmLandmarks returns a hand with all five digits extended.
// The thumb points left of the palm and the pinky sits on the right,
// so the hand reads as a right hand.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	// Thumb spread out to the left
	landmarks.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.35, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.30, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.60}
	landmarks.Points[IndexPIP] = Point3D{X: 0.44, Y: 0.48}
	landmarks.Points[IndexDIP] = Point3D{X: 0.43, Y: 0.40}
	landmarks.Points[IndexTip] = Point3D{X: 0.43, Y: 0.32}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.58}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.45}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.36}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.27}

	landmarks.Points[RingMCP] = Point3D{X: 0.55, Y: 0.60}
	landmarks.Points[RingPIP] = Point3D{X: 0.56, Y: 0.48}
	landmarks.Points[RingDIP] = Point3D{X: 0.57, Y: 0.40}
	landmarks.Points[RingTip] = Point3D{X: 0.57, Y: 0.33}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.64}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.62, Y: 0.55}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.63, Y: 0.48}
	landmarks.Points[PinkyTip] = Point3D{X: 0.64, Y: 0.42}

	return landmarks
}

// FistLandmarks returns a closed fist: every fingertip curled below its PIP
// joint and the thumb folded back across the palm.
func FistLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.93,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.45, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.41, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.44, Y: 0.66, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.64, Z: -0.04}

	landmarks.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.60}
	landmarks.Points[IndexPIP] = Point3D{X: 0.44, Y: 0.55, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.45, Y: 0.60, Z: -0.06}
	landmarks.Points[IndexTip] = Point3D{X: 0.46, Y: 0.63, Z: -0.04}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.58}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.53, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.59, Z: -0.06}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.62, Z: -0.04}

	landmarks.Points[RingMCP] = Point3D{X: 0.55, Y: 0.60}
	landmarks.Points[RingPIP] = Point3D{X: 0.55, Y: 0.55, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.55, Y: 0.61, Z: -0.06}
	landmarks.Points[RingTip] = Point3D{X: 0.54, Y: 0.64, Z: -0.04}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.60, Y: 0.64}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.60, Y: 0.59, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.59, Y: 0.64, Z: -0.06}
	landmarks.Points[PinkyTip] = Point3D{X: 0.58, Y: 0.67, Z: -0.04}

	return landmarks
}

// PoseLandmarks builds a hand from the fist and open palm presets, taking
// each digit from the open palm when it should be extended.
// Digits are ordered thumb, index, middle, ring, pinky.
func PoseLandmarks(extended [5]bool) HandLandmarks {
	open := OpenPalmLandmarks()
	hand := FistLandmarks()

	digits := [5][]int{
		{ThumbIP, ThumbTip},
		{IndexDIP, IndexTip},
		{MiddleDIP, MiddleTip},
		{RingDIP, RingTip},
		{PinkyDIP, PinkyTip},
	}
	for i, up := range extended {
		if !up {
			continue
		}
		for _, idx := range digits[i] {
			hand.Points[idx] = open.Points[idx]
		}
		if i > 0 {
			// extended fingers use the open palm PIP so the tip clears it
			pip := digits[i][0] - 1
			hand.Points[pip] = open.Points[pip]
		}
	}
	return hand
}

// MirrorLandmarks flips a hand horizontally, as a mirrored camera would.
func MirrorLandmarks(h HandLandmarks) HandLandmarks {
	mirrored := h
	for i := range mirrored.Points {
		mirrored.Points[i].X = 1 - mirrored.Points[i].X
	}
	switch h.Handedness {
	case "Right":
		mirrored.Handedness = "Left"
	case "Left":
		mirrored.Handedness = "Right"
	}
	return mirrored
}

// AtWristY returns a copy of h translated vertically so the wrist sits at y.
func AtWristY(h HandLandmarks, y float64) HandLandmarks {
	moved := h
	dy := y - h.Points[Wrist].Y
	for i := range moved.Points {
		moved.Points[i].Y += dy
	}
	return moved
}
