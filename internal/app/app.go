// Package app wires the capture, detection, and gesture stages into the
// hand tracking pipeline.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mikoslaf/handsense/internal/capture"
	"github.com/mikoslaf/handsense/internal/detector"
	"github.com/mikoslaf/handsense/internal/gesture"
	"github.com/mikoslaf/handsense/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds without motion before the
	// pipeline drops back to idle mode.
	IdleTimeoutMs = 2000
	// DefaultMotionThreshold is the percentage of changed pixels that counts
	// as motion.
	DefaultMotionThreshold = 1.0
)

// Fist classifier names accepted in configuration and settings.
const (
	ClassifierFoldCount = "fold_count"
	ClassifierCentroid  = "centroid"
)

// Config holds configuration options for the application.
type Config struct {
	Store              *store.Store
	CameraID           int
	MotionThresh       float64
	WindowDuration     time.Duration
	MinConfidenceRatio float64
	FistClassifier     string

	// Camera and Detector override the defaults when set. Tests and the
	// server wire their own implementations through these.
	Camera   capture.Camera
	Detector detector.Detector
}

// App orchestrates the camera, motion gate, hand detector, and gesture
// stabilization, and records stabilized results.
type App struct {
	config    Config
	camera    capture.Camera
	motion    *capture.MotionDetector
	detector  detector.Detector
	extractor *gesture.Extractor

	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
	onGesture  []func(gesture.Result)
	lastResult gesture.Result
	hasResult  bool
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = DefaultMotionThreshold
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}

	a := &App{
		config:    config,
		camera:    camera,
		motion:    capture.NewMotionDetector(motionThreshold),
		extractor: gesture.NewExtractorWithFist(classifierFor(config.FistClassifier)),
	}

	if config.Detector != nil {
		a.detector = config.Detector
		return a
	}

	// Try MediaPipe first, fall back to the mock detector.
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// classifierFor maps a configured classifier name to an implementation.
// Unknown names fall back to the fold-count classifier.
func classifierFor(name string) gesture.FistClassifier {
	switch name {
	case ClassifierCentroid:
		return gesture.CentroidClassifier{}
	default:
		return gesture.FoldCountClassifier{}
	}
}

// SetEnabled enables or disables gesture detection in the background
// pipeline.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// OnGesture registers a hook invoked with every stabilized result that is
// recorded, from Observe and from the background pipeline alike. Hooks are
// called in registration order.
func (a *App) OnGesture(fn func(gesture.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGesture = append(a.onGesture, fn)
}

// LastResult returns the most recently recorded stabilized result.
func (a *App) LastResult() (gesture.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastResult, a.hasResult
}

// Observe runs one on-demand classification: it collects hand readings for
// the given duration, then reduces them to a single stabilized result.
// A non-positive duration uses the configured window duration. Cancelling
// the context stops collection early; whatever was collected is still
// reduced. A span with no hands in view yields the "none" result.
func (a *App) Observe(ctx context.Context, duration time.Duration) (gesture.Result, error) {
	a.mu.RLock()
	cam, det := a.camera, a.detector
	a.mu.RUnlock()

	if det == nil {
		return gesture.Result{}, errors.New("no hand detector configured")
	}

	if !cam.IsOpen() {
		if err := cam.Open(); err != nil {
			return gesture.Result{}, err
		}
		defer func() {
			if err := cam.Close(); err != nil {
				log.Printf("Error closing camera: %v", err)
			}
		}()
	}

	if duration <= 0 {
		duration = a.windowDuration()
	}
	window := gesture.NewWindow(duration, a.config.MinConfidenceRatio)

	ticker := time.NewTicker(time.Second / ActiveFPS)
	defer ticker.Stop()

	for !window.Done() {
		select {
		case <-ctx.Done():
			result := window.Finalize()
			a.recordResult(result)
			return result, nil
		case <-ticker.C:
			a.collectReading(window, cam, det)
		}
	}

	result := window.Finalize()
	a.recordResult(result)
	return result, nil
}

// collectReading grabs one frame, runs hand detection, and adds the feature
// reading of the first hand to the window. Per-frame failures are logged and
// skipped; the window reduces whatever was collected.
func (a *App) collectReading(window *gesture.Window, cam capture.Camera, det detector.Detector) {
	frame, err := cam.ReadFrame()
	if err != nil {
		log.Printf("Error reading frame: %v", err)
		return
	}

	hands, err := det.Detect(frame)
	if frame != nil {
		frame.Close()
	}
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}
	if len(hands) == 0 {
		return
	}

	snapshot := a.extractor.ExtractHand(&hands[0])
	window.Add(snapshot.Reading())
}

// recordResult stores the result as the latest, persists it, and notifies
// the gesture hook.
func (a *App) recordResult(result gesture.Result) {
	a.mu.Lock()
	a.lastResult = result
	a.hasResult = true
	hooks := a.onGesture
	a.mu.Unlock()

	if a.config.Store != nil && result.Gesture != gesture.GestureNone {
		if _, err := a.config.Store.Detections().CreateFromResult(result); err != nil {
			log.Printf("Failed to persist detection: %v", err)
		}
	}

	for _, hook := range hooks {
		hook(result)
	}
}

// windowDuration returns the configured stabilization window span.
func (a *App) windowDuration() time.Duration {
	if a.config.WindowDuration > 0 {
		return a.config.WindowDuration
	}
	return gesture.DefaultWindowDuration
}
