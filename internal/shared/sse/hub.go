package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types published by the catalog and delivery services.
const (
	EventVariantPricesUpdate       = "variant_prices_update"
	EventVariantGenerationProgress = "variant_generation_progress"
	EventDeliveryUpdate            = "delivery_update"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// NewClient allocates a client with a buffered event channel.
func NewClient(userID string, buffer int) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Events: make(chan Event, buffer),
	}
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("sse"),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("Client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("Client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. Slow clients miss it.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("Client buffer full, skipping event", zap.String("client_id", client.ID), zap.String("event", event.EventType))
		}
	}
}

// SendToUser 给特定用户发送事件（而非广播）
func (h *Hub) SendToUser(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("Client buffer full, skipping user event", zap.String("client_id", client.ID))
		}
	}
}

// Publish broadcasts payload encoded as JSON.
func (h *Hub) Publish(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Encode event failed", zap.String("event", eventType), zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}

// PublishVariantPricesUpdate tells clients to re-fetch a product's ledger.
func (h *Hub) PublishVariantPricesUpdate(productID, action string) {
	h.Publish(EventVariantPricesUpdate, map[string]string{
		"product_id": productID,
		"action":     action,
	})
}

// PublishGenerationProgress reports bulk generation progress.
func (h *Hub) PublishGenerationProgress(productID string, done, total int) {
	h.Publish(EventVariantGenerationProgress, map[string]interface{}{
		"product_id": productID,
		"done":       done,
		"total":      total,
	})
}

// PublishDeliveryUpdate 合同交付配置已保存
func (h *Hub) PublishDeliveryUpdate(contractID string, successCount, errorCount int) {
	h.Publish(EventDeliveryUpdate, map[string]interface{}{
		"contract_id":   contractID,
		"success_count": successCount,
		"error_count":   errorCount,
	})
}
