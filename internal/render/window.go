package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/jpeg"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"

	"github.com/ayusman/handplay/internal/app"
	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
)

// Source is the application state the window draws and drives.
type Source interface {
	Mode() app.Mode
	StepGame() game.Phase
	GameState() game.Snapshot
	CounterState() app.CounterState
	LastFrame() (detector.FrameResult, bool)
	Preview() ([]byte, bool)
	Restart()
}

// WindowConfig controls the desktop window.
type WindowConfig struct {
	Title  string
	Game   game.Config
	Mirror bool
	Logger zerolog.Logger

	// Done closes the window when it is closed, e.g. on a signal.
	Done <-chan struct{}
}

const (
	counterWidth  = 640
	counterHeight = 480
	debugCharW    = 6
	debugCharH    = 16
)

var (
	colorSky       = color.RGBA{0x87, 0xce, 0xeb, 0xff}
	colorObstacle  = color.RGBA{0x22, 0x8b, 0x22, 0xff}
	colorEdge      = color.RGBA{0x00, 0x64, 0x00, 0xff}
	colorAvatar    = color.RGBA{0xff, 0xd7, 0x00, 0xff}
	colorShade     = color.RGBA{0x00, 0x00, 0x00, 0x99}
	colorBone      = color.RGBA{0x00, 0xff, 0x00, 0xff}
	colorJoint     = color.RGBA{0xff, 0x00, 0x00, 0xff}
	colorHandOK    = color.RGBA{0x22, 0xc5, 0x5e, 0xff}
	colorHandNone  = color.RGBA{0xef, 0x44, 0x44, 0xff}
	colorPanelDark = color.RGBA{0x1f, 0x29, 0x37, 0xff}
)

// RunWindow opens a window for src and blocks until it closes.
// In game mode each window update advances the game by one tick.
func RunWindow(src Source, cfg WindowConfig) error {
	if cfg.Title == "" {
		cfg.Title = "handplay"
	}

	w := &window{
		src:    src,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "window").Logger(),
		labels: make(map[string]*ebiten.Image),
	}

	width, height := w.size()
	ebiten.SetWindowTitle(fmt.Sprintf("%s (%s)", cfg.Title, src.Mode()))
	ebiten.SetWindowSize(width, height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

type window struct {
	src    Source
	cfg    WindowConfig
	logger zerolog.Logger

	preview     *ebiten.Image
	previewData []byte
	labels      map[string]*ebiten.Image
}

func (w *window) size() (int, int) {
	if w.src.Mode() == app.ModeGame {
		return int(w.cfg.Game.Width) + previewPanelWidth, int(w.cfg.Game.Height)
	}
	return counterWidth, counterHeight
}

func (w *window) Update() error {
	select {
	case <-w.cfg.Done:
		return ebiten.Termination
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	if w.src.Mode() != app.ModeGame {
		return nil
	}

	if w.src.GameState().GameOver &&
		(inpututil.IsKeyJustPressed(ebiten.KeyR) || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)) {
		w.src.Restart()
		return nil
	}

	w.src.StepGame()
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	if w.src.Mode() == app.ModeGame {
		w.drawGame(screen)
		return
	}
	w.drawCounter(screen)
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.size()
}

func (w *window) drawGame(screen *ebiten.Image) {
	cfg := w.cfg.Game
	s := w.src.GameState()

	screen.Fill(colorPanelDark)
	vector.DrawFilledRect(screen, 0, 0, float32(cfg.Width), float32(cfg.Height), colorSky, false)

	for _, o := range s.Obstacles {
		top, bottom := obstacleRects(cfg, o)
		for _, r := range []Rect{top, bottom} {
			if r.Empty() {
				continue
			}
			vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), colorObstacle, false)
			vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 3, colorEdge, false)
		}
	}

	cx, cy := avatarCenter(cfg, s.AvatarY)
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(cfg.Radius()), colorAvatar, true)

	w.drawText(screen, fmt.Sprintf("Score: %d", s.Score), 16, 16, 3)

	status := handStatus(s.HandDetected)
	statusColor := colorHandNone
	if s.HandDetected {
		statusColor = colorHandOK
	}
	sx := float32(cfg.Width) - 160
	vector.DrawFilledRect(screen, sx, 16, 144, 28, statusColor, false)
	ebitenutil.DebugPrintAt(screen, status, int(sx)+10, 22)

	panel := previewPanel(cfg)
	w.drawPreview(screen, panel)
	w.drawText(screen, "Camera", panel.X+16, panel.Y+panel.H+16, 2)

	if lines := gameOverlay(s); len(lines) > 0 {
		vector.DrawFilledRect(screen, 0, 0, float32(cfg.Width), float32(cfg.Height), colorShade, false)
		w.drawCentered(screen, lines, cfg.Width, cfg.Height)
	}
}

func (w *window) drawCounter(screen *ebiten.Image) {
	screen.Fill(colorPanelDark)
	w.drawPreview(screen, Rect{W: counterWidth, H: counterHeight})

	state := w.src.CounterState()
	vector.DrawFilledRect(screen, 0, counterHeight-96, counterWidth, 96, colorShade, false)
	w.drawText(screen, fmt.Sprintf("%d", state.Total), 24, counterHeight-88, 5)
	w.drawText(screen, state.Label, 120, counterHeight-64, 3)
}

// drawPreview draws the camera frame scaled into area with the latest
// hand skeletons on top.
func (w *window) drawPreview(screen *ebiten.Image, area Rect) {
	if img := w.previewImage(); img != nil {
		b := img.Bounds()
		op := &ebiten.DrawImageOptions{}
		sx := area.W / float64(b.Dx())
		sy := area.H / float64(b.Dy())
		if w.cfg.Mirror {
			op.GeoM.Scale(-sx, sy)
			op.GeoM.Translate(area.W, 0)
		} else {
			op.GeoM.Scale(sx, sy)
		}
		op.GeoM.Translate(area.X, area.Y)
		screen.DrawImage(img, op)
	}

	if frame, ok := w.src.LastFrame(); ok {
		for i := range frame.Hands {
			w.drawHand(screen, &frame.Hands[i], area)
		}
	}
}

func (w *window) drawHand(screen *ebiten.Image, hand *detector.HandLandmarks, area Rect) {
	point := func(i int) (float32, float32) {
		x, y := landmarkIn(hand.Points[i], area, w.cfg.Mirror)
		return float32(x), float32(y)
	}

	for _, c := range detector.Connections {
		x0, y0 := point(c[0])
		x1, y1 := point(c[1])
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, colorBone, true)
	}
	for i := range hand.Points {
		x, y := point(i)
		vector.DrawFilledCircle(screen, x, y, 3, colorJoint, true)
	}
}

// previewImage returns the latest camera frame, decoding it only when it changed.
func (w *window) previewImage() *ebiten.Image {
	data, ok := w.src.Preview()
	if !ok {
		return w.preview
	}
	if w.preview != nil && bytes.Equal(data, w.previewData) {
		return w.preview
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		w.logger.Debug().Err(err).Msg("preview decode failed")
		return w.preview
	}

	if w.preview != nil {
		w.preview.Deallocate()
	}
	w.preview = ebiten.NewImageFromImage(img)
	w.previewData = data
	return w.preview
}

// drawText draws s at (x, y) scaled up from the debug font.
func (w *window) drawText(dst *ebiten.Image, s string, x, y, scale float64) {
	img, ok := w.labels[s]
	if !ok {
		img = ebiten.NewImage(max(len(s)*debugCharW, 1), debugCharH)
		ebitenutil.DebugPrint(img, s)
		w.labels[s] = img
		if len(w.labels) > 64 {
			w.evictLabels(s)
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(x, y)
	dst.DrawImage(img, op)
}

func (w *window) evictLabels(keep string) {
	for k, img := range w.labels {
		if k != keep {
			img.Deallocate()
			delete(w.labels, k)
		}
	}
}

func (w *window) drawCentered(dst *ebiten.Image, lines []string, width, height float64) {
	const scale = 3
	lineH := debugCharH * scale
	y := (height - float64(len(lines)*lineH)) / 2
	for _, line := range lines {
		x := (width - float64(len(line)*debugCharW*scale)) / 2
		w.drawText(dst, line, x, y, scale)
		y += float64(lineH)
	}
}
