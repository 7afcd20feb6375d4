package app

import (
	"log"
	"time"

	"github.com/mikoslaf/handsense/internal/gesture"
)

// Start opens the camera and begins the background detection pipeline.
// Starting an already running pipeline is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases the camera, motion
// detector, and hand detector. Safe to call whether or not Start ran.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// runPipeline is the continuous detection loop. It keeps the camera at the
// idle frame rate until motion shows up, then ramps up, rolls stabilization
// windows over the incoming hand readings, and records each finalized
// result. After 2s without motion it drops back to idle and discards the
// open window.
func (a *App) runPipeline(stopCh <-chan struct{}) {
	window := gesture.NewWindow(a.windowDuration(), a.config.MinConfidenceRatio)
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / time.Duration(ActiveFPS))
					window = gesture.NewWindow(a.windowDuration(), a.config.MinConfidenceRatio)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					ticker.Reset(time.Second / time.Duration(IdleFPS))
					window = gesture.NewWindow(a.windowDuration(), a.config.MinConfidenceRatio)
					log.Println("Switched to idle mode")
				}
			}

			if !activeMode {
				if frame != nil {
					frame.Close()
				}
				continue
			}

			hands, err := a.Detector().Detect(frame)
			if frame != nil {
				frame.Close()
			}

			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			if len(hands) > 0 {
				snapshot := a.extractor.ExtractHand(&hands[0])
				window.Add(snapshot.Reading())
			}

			if window.Done() {
				if window.Len() > 0 {
					a.recordResult(window.Finalize())
				}
				window = gesture.NewWindow(a.windowDuration(), a.config.MinConfidenceRatio)
			}
		}
	}
}
