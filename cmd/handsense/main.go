package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mikoslaf/handsense/internal/app"
	"github.com/mikoslaf/handsense/internal/board"
	"github.com/mikoslaf/handsense/internal/gesture"
	"github.com/mikoslaf/handsense/internal/server"
	"github.com/mikoslaf/handsense/internal/store"
	"github.com/mikoslaf/handsense/internal/tray"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	robotPort := flag.String("robot", "", "serial port of the robot controller (disabled when empty)")
	withTray := flag.Bool("tray", false, "run with a system tray menu")
	flag.Parse()

	fmt.Println("Handsense - Hand Tracking")

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".handsense")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "handsense.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Stabilization tuning comes from persisted settings.
	settings := st.Settings()
	windowMs := settings.GetFloat(store.SettingWindowDurationMs,
		float64(gesture.DefaultWindowDuration.Milliseconds()))
	minRatio := settings.GetFloat(store.SettingMinConfidenceRatio,
		gesture.DefaultMinConfidenceRatio)
	classifier := app.ClassifierFoldCount
	if v, err := settings.Get(store.SettingFistClassifier); err == nil {
		classifier = v
	}

	a := app.New(app.Config{
		Store:              st,
		CameraID:           *cameraID,
		WindowDuration:     time.Duration(windowMs) * time.Millisecond,
		MinConfidenceRatio: minRatio,
		FistClassifier:     classifier,
	})
	defer a.Stop()

	// Optional robot: stabilized gestures drive the servos.
	if *robotPort != "" {
		b, err := board.Open(*robotPort, board.DefaultBaudRate)
		if err != nil {
			log.Fatalf("Failed to connect to robot: %v", err)
		}
		defer b.Close()
		wireRobot(a, board.NewRobot(b))
		fmt.Printf("Robot connected on %s\n", *robotPort)
	}

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Camera:    a.Camera(),
		Detector:  a.Detector(),
		Observer:  a,
	})

	serveErr := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		serveErr <- srv.ListenAndServe(*addr)
	}()

	if *withTray {
		runTray(a, *addr)
		return
	}

	if err := <-serveErr; err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// wireRobot maps stabilized gestures to drive commands: open hand stops,
// one finger drives forward, two fingers backs up, fist turns in place.
func wireRobot(a *app.App, robot *board.Robot) {
	a.OnGesture(func(result gesture.Result) {
		var err error
		switch result.Gesture {
		case gesture.GestureOpenHand:
			err = robot.Stop()
		case gesture.GestureOneFinger:
			err = robot.Forward(1)
		case gesture.GestureTwoFingers:
			err = robot.Backward(1)
		case gesture.GestureFist:
			err = robot.TurnLeft(1)
		default:
			return
		}
		if err != nil {
			log.Printf("Robot command failed: %v", err)
		}
	})
}

// runTray blocks in the system tray loop, mirroring detection state and the
// last stabilized gesture.
func runTray(a *app.App, addr string) {
	t := tray.New()

	if err := a.Start(); err != nil {
		log.Printf("Failed to start pipeline: %v", err)
	} else {
		a.SetEnabled(t.IsEnabled())
	}

	a.OnGesture(func(result gesture.Result) {
		t.SetLastGesture(result.Gesture, result.Confidence)
	})

	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
	})
	t.OnDashboard(func() {
		openBrowser("http://localhost" + addr)
	})
	t.OnQuit(func() {
		a.Stop()
	})

	t.Run()
}

// openBrowser opens the URL with the platform's default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handsense/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handsense", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
