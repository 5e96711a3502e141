// Package ws provides WebSocket connection handling and message routing.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/youclicker/backend/internal/model"
)

// MessageType represents the type of WebSocket message.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeJoin        MessageType = "join"
	MessageTypeSetQuestion MessageType = "setQuestion"
	MessageTypeAnswer      MessageType = "answer"
	MessageTypeReveal      MessageType = "reveal"

	// Server -> Client message types
	MessageTypeIdentity     MessageType = "identity"
	MessageTypeSummary      MessageType = "summary"
	MessageTypeQuestion     MessageType = "question"
	MessageTypeAnswerUpdate MessageType = "answerUpdate"
	MessageTypeError        MessageType = "error"
)

// Message represents an inbound WebSocket frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Role      model.Role      `json:"role,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Question  *model.Question `json:"question,omitempty"`
	Choice    *float64        `json:"choice,omitempty"`
}

// ChoiceIndex returns the answer choice as an integer index. It reports
// false when the choice is absent or carries a fractional part, matching
// the protocol rule that only integer choices are accepted.
func (m *Message) ChoiceIndex() (int, bool) {
	if m.Choice == nil {
		return 0, false
	}
	idx := int(*m.Choice)
	if float64(idx) != *m.Choice {
		return 0, false
	}
	return idx, true
}

// Outbound frames. Summary is embedded so its fields flatten next to the
// type discriminator.
type identityMessage struct {
	Type     MessageType `json:"type"`
	ClientID string      `json:"clientId"`
}

type summaryMessage struct {
	Type MessageType `json:"type"`
	model.Summary
}

type questionMessage struct {
	Type     MessageType     `json:"type"`
	Question *model.Question `json:"question"`
}

type countsMessage struct {
	Type         MessageType `json:"type"`
	AnswerCounts []int       `json:"answerCounts"`
}

type errorMessage struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

// Client represents one WebSocket channel and the ephemeral identity bound
// to it. Role, session and participant id are set by the channel's first
// successful join and only ever touched by its own read loop.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	role          model.Role
	sessionID     string
	participantID string

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new WebSocket client with an unbound identity.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Send queues a message to be sent to the client. Delivery is best-effort:
// a client whose buffer is full is closed rather than blocking the sender.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.closeLocked()
	}
}

// Close closes the client's send channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// SessionID returns the session this client is bound to, if any.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Role returns the role bound to this client, if any.
func (c *Client) Role() model.Role {
	return c.role
}

// ParticipantID returns the participant id assigned to a student client.
func (c *Client) ParticipantID() string {
	return c.participantID
}

// SendChan returns the client's outbound channel, drained by its write pump.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Router indexes live clients by session id so a broadcast touches only
// the channels of one session, not every open connection. The index is
// updated in the same places clients bind and unbind.
type Router struct {
	mu   sync.RWMutex
	hubs map[string]map[*Client]bool
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		hubs: make(map[string]map[*Client]bool),
	}
}

// Register adds a client to the session's hub, creating it on first use.
func (r *Router) Register(sessionID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hub, ok := r.hubs[sessionID]
	if !ok {
		hub = make(map[*Client]bool)
		r.hubs[sessionID] = hub
	}
	hub[client] = true
}

// Unregister removes a client from its session's hub, dropping the hub
// when no clients remain.
func (r *Router) Unregister(sessionID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hub, ok := r.hubs[sessionID]
	if !ok {
		return
	}
	delete(hub, client)
	if len(hub) == 0 {
		delete(r.hubs, sessionID)
	}
}

// Broadcast serializes the message once and delivers it to every client
// bound to the session, in no particular order, at most once each.
func (r *Router) Broadcast(sessionID string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for client := range r.hubs[sessionID] {
		client.Send(data)
	}
	return nil
}

// ClientCount returns the number of clients bound to a session.
func (r *Router) ClientCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hubs[sessionID])
}

// Close closes every client in every hub and clears the index.
func (r *Router) Close() {
	r.mu.Lock()
	var clients []*Client
	for _, hub := range r.hubs {
		for client := range hub {
			clients = append(clients, client)
		}
	}
	r.hubs = make(map[string]map[*Client]bool)
	r.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

// sendJSON marshals a message and queues it on a single client.
func sendJSON(client *Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	client.Send(data)
}
