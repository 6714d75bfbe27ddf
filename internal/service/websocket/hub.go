package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HubService pushes alarm messages to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client. Register and Unregister return immediately once
// Run has stopped.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.Close()
	}
}

// Done is closed when Run returns.
func (h *HubService) Done() <-chan struct{} {
	return h.done
}

// Broadcast queues a message for every viewer. It never blocks the caller;
// a backed up hub drops the message.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("⚠️  Viewer broadcast queue full - skipping message")
		return false
	}
}

// HandleAlarm forwards an alarm to the viewers. Nothing is encoded while no
// one is watching.
func (h *HubService) HandleAlarm(_ context.Context, event dto.AlarmEvent) error {
	if h.GetClientCount() == 0 {
		return nil
	}

	message, err := EncodeAlarm(event)
	if err != nil {
		return err
	}
	h.Broadcast(message)
	return nil
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// EncodeAlarm renders the viewer message for an alarm event.
func EncodeAlarm(event dto.AlarmEvent) ([]byte, error) {
	message, err := json.Marshal(dto.AlarmMessage{
		ID:         event.ID,
		Camera:     event.Camera,
		Frame:      event.Frame,
		Timestamp:  event.Timestamp,
		Detections: event.Detections,
		Snapshot:   event.Snapshot,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode alarm message")
	}
	return message, nil
}
