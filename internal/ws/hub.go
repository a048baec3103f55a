package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event is a message broadcast to order-tracking pages.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OrderStatusPayload is the payload for "order.status" events.
type OrderStatusPayload struct {
	OrderID uuid.UUID `json:"pedido_id"`
	Status  string    `json:"status"`
}

// establishmentEvent routes an event to one establishment's room.
type establishmentEvent struct {
	EstablishmentID uuid.UUID
	Event           Event
}

// Hub maintains the set of active tracking connections, one room per
// establishment.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *establishmentEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *establishmentEvent, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.establishmentID] == nil {
				h.rooms[client.establishmentID] = make(map[*Client]bool)
			}
			h.rooms[client.establishmentID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.establishmentID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.establishmentID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.EstablishmentID]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.EstablishmentID], client)
					if len(h.rooms[event.EstablishmentID]) == 0 {
						delete(h.rooms, event.EstablishmentID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastOrderStatus notifies an establishment's tracking pages that an
// order changed status.
func (h *Hub) BroadcastOrderStatus(establishmentID, orderID uuid.UUID, status string) {
	payload, err := json.Marshal(OrderStatusPayload{OrderID: orderID, Status: status})
	if err != nil {
		return
	}
	h.broadcast <- &establishmentEvent{
		EstablishmentID: establishmentID,
		Event:           Event{Type: "order.status", Payload: payload},
	}
}
