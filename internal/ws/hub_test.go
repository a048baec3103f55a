package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, establishmentID uuid.UUID) *Client {
	return &Client{
		hub:             hub,
		establishmentID: establishmentID,
		send:            make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	establishmentID := uuid.New()
	client := mockClient(hub, establishmentID)

	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[establishmentID] == nil {
		t.Fatal("establishment room not created")
	}
	if !hub.rooms[establishmentID][client] {
		t.Fatal("client not registered in establishment room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	establishmentID := uuid.New()
	client := mockClient(hub, establishmentID)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[establishmentID] != nil {
		t.Fatal("establishment room not cleaned up after last client unregistered")
	}
}

func TestBroadcastOrderStatus_SingleEstablishment(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	establishment1 := uuid.New()
	establishment2 := uuid.New()

	client1 := mockClient(hub, establishment1)
	client2 := mockClient(hub, establishment2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	orderID := uuid.New()
	hub.BroadcastOrderStatus(establishment1, orderID, "em_preparo")

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.status" {
			t.Errorf("expected type 'order.status', got '%s'", received.Type)
		}
		var payload OrderStatusPayload
		if err := json.Unmarshal(received.Payload, &payload); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		if payload.OrderID != orderID || payload.Status != "em_preparo" {
			t.Errorf("payload: got %+v", payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different establishment")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameEstablishment(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	establishmentID := uuid.New()
	client1 := mockClient(hub, establishmentID)
	client2 := mockClient(hub, establishmentID)
	client3 := mockClient(hub, establishmentID)

	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastOrderStatus(establishmentID, uuid.New(), "pronto")

	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "order.status" {
				t.Errorf("client%d: expected type 'order.status', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}
