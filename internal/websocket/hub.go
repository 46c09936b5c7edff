package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/pipeline"

	"github.com/redis/go-redis/v9"
)

const escalationChannel = "escalation_events"

// Hub fans escalation events out to connected agent consoles. Every agent
// sees every escalation; claiming a handoff happens over the REST side.
type Hub struct {
	// AgentID -> connections (an agent may have several consoles open)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.AgentID] = append(h.clients[client.AgentID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Agent console connected", map[string]interface{}{"agent_id": client.AgentID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.AgentID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.AgentID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.AgentID]) == 0 {
					delete(h.clients, client.AgentID)
					h.logger.Info("Hub", "Agent console disconnected", map[string]interface{}{"agent_id": client.AgentID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEscalation sends an escalation to every connected console and
// relays it to other instances through Redis.
func (h *Hub) BroadcastEscalation(summary pipeline.EscalationSummary) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "escalation_raised",
		"data": summary,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to serialize escalation", map[string]interface{}{
			"request_id": summary.RequestID,
			"error":      err.Error(),
		})
		return
	}

	h.broadcastLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(relayEnvelope{Origin: instanceID, Message: data})
		h.rdb.Publish(context.Background(), escalationChannel, payload)
	}
}

func (h *Hub) broadcastLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Console send buffer full, dropping connection", map[string]interface{}{"agent_id": client.AgentID})
				close(client.Send)
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, escalationChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Dropping malformed relay payload", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Locally raised escalations were already delivered before publish.
		if envelope.Origin == instanceID {
			continue
		}
		h.broadcastLocal(envelope.Message)
	}
}
