package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mikoslaf/handsense/internal/capture"
	"github.com/mikoslaf/handsense/internal/detector"
	"github.com/mikoslaf/handsense/internal/gesture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboard only
	},
}

// landmarksMessage is one WebSocket broadcast: the raw landmarks of every
// detected hand plus the feature snapshot extracted from each.
type landmarksMessage struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Snapshots []*gesture.Snapshot      `json:"snapshots"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarksHandler broadcasts real-time hand landmarks and feature
// snapshots via WebSocket.
type LandmarksHandler struct {
	detector  detector.Detector
	camera    capture.Camera
	extractor *gesture.Extractor
	clients   map[*websocket.Conn]bool
	mu        sync.RWMutex
}

// NewLandmarksHandler creates a LandmarksHandler with the given detector
// and camera and starts its broadcast loop.
func NewLandmarksHandler(d detector.Detector, c capture.Camera) *LandmarksHandler {
	h := &LandmarksHandler{
		detector:  d,
		camera:    c,
		extractor: gesture.NewExtractor(),
		clients:   make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep the connection alive by reading messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast pushes landmark messages to all connected clients. Frames are
// only captured while someone is listening.
func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		frame, err := h.camera.ReadFrame()
		if err != nil || frame == nil {
			continue
		}

		hands, err := h.detector.Detect(frame)
		frame.Close()
		if err != nil {
			continue
		}

		snapshots := make([]*gesture.Snapshot, 0, len(hands))
		for i := range hands {
			snapshots = append(snapshots, h.extractor.ExtractHand(&hands[i]))
		}

		msg, _ := json.Marshal(landmarksMessage{
			Hands:     hands,
			Snapshots: snapshots,
			Timestamp: time.Now().UnixMilli(),
		})

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
