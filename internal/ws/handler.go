package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/youclicker/backend/internal/eventlog"
	"github.com/youclicker/backend/internal/model"
	"github.com/youclicker/backend/internal/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Heartbeat probes are sent with this period.
	heartbeatInterval = 30 * time.Second

	// A peer that answers no probe for this long is evicted. Must be
	// larger than heartbeatInterval.
	pongWait = 2 * heartbeatInterval

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// Handler interprets inbound frames against the session registry and fans
// derived snapshots out through the router.
type Handler struct {
	registry *registry.Registry
	router   *Router
	events   *eventlog.Manager
}

// NewHandler creates a new WebSocket handler.
func NewHandler(reg *registry.Registry, router *Router, events *eventlog.Manager) *Handler {
	return &Handler{
		registry: reg,
		router:   router,
		events:   events,
	}
}

// Router returns the broadcast router used by this handler.
func (h *Handler) Router() *Router {
	return h.router
}

// HandleConnection upgrades the HTTP request to a WebSocket channel and
// starts its read and write pumps. The channel has no identity until its
// first join frame.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn)

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

// handleMessage processes one inbound frame. Frames of unknown type, and
// frames whose preconditions fail, are dropped without a response.
func (h *Handler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessageTypeJoin:
		h.handleJoin(client, msg)
	case MessageTypeSetQuestion:
		h.handleSetQuestion(client, msg)
	case MessageTypeAnswer:
		h.handleAnswer(client, msg)
	case MessageTypeReveal:
		h.handleReveal(client, msg)
	}
}

// handleJoin binds the channel's role and session. Join is the one message
// that answers an unknown session id with an explicit error frame, sent to
// the joining channel only.
func (h *Handler) handleJoin(client *Client, msg *Message) {
	if client.sessionID != "" {
		// A channel joins exactly once; later joins are ignored rather
		// than rebinding the role or session.
		return
	}

	if msg.Role == model.RoleTeacher {
		summary, err := h.registry.JoinTeacher(msg.SessionID)
		if err != nil {
			sendJSON(client, errorMessage{Type: MessageTypeError, Error: "Session not found"})
			return
		}
		client.role = model.RoleTeacher
		client.sessionID = msg.SessionID
		h.router.Register(msg.SessionID, client)

		h.events.Record(msg.SessionID, "teacher_joined", nil)
		sendJSON(client, summaryMessage{Type: MessageTypeSummary, Summary: summary})
		h.broadcastSummary(msg.SessionID, summary)
		return
	}

	// Any non-teacher role joins as a student.
	participantID, summary, err := h.registry.JoinStudent(msg.SessionID, client.participantID)
	if err != nil {
		sendJSON(client, errorMessage{Type: MessageTypeError, Error: "Session not found"})
		return
	}
	client.role = model.RoleStudent
	client.sessionID = msg.SessionID
	client.participantID = participantID
	h.router.Register(msg.SessionID, client)

	h.events.Record(msg.SessionID, "student_joined", participantID)
	sendJSON(client, identityMessage{Type: MessageTypeIdentity, ClientID: participantID})
	sendJSON(client, summaryMessage{Type: MessageTypeSummary, Summary: summary})
	h.broadcastSummary(msg.SessionID, summary)
}

// handleSetQuestion replaces the session's question and restarts the
// tally. Like every post-join message, it acts on the session the channel
// was bound to at join time, whatever session id the frame claims.
func (h *Handler) handleSetQuestion(client *Client, msg *Message) {
	if client.role != model.RoleTeacher {
		return
	}

	summary, err := h.registry.SetQuestion(client.sessionID, msg.Question)
	if err != nil {
		return
	}

	h.events.Record(client.sessionID, "question_set", msg.Question)
	h.router.Broadcast(client.sessionID, questionMessage{Type: MessageTypeQuestion, Question: msg.Question})
	h.broadcastSummary(client.sessionID, summary)
}

// handleAnswer upserts the student's choice and broadcasts the new tally.
// The stored index is not validated against the current choices; an
// out-of-range value is simply excluded from every tally.
func (h *Handler) handleAnswer(client *Client, msg *Message) {
	if client.role != model.RoleStudent || client.participantID == "" {
		return
	}
	choice, ok := msg.ChoiceIndex()
	if !ok {
		return
	}

	summary, err := h.registry.SubmitAnswer(client.sessionID, client.participantID, choice)
	if err != nil {
		return
	}

	h.events.Record(client.sessionID, "answer", summary.AnswerCounts)
	h.router.Broadcast(client.sessionID, countsMessage{Type: MessageTypeAnswerUpdate, AnswerCounts: summary.AnswerCounts})
}

// handleReveal re-broadcasts the current tally labeled as a reveal. It
// mutates nothing and does not block further answers.
func (h *Handler) handleReveal(client *Client, msg *Message) {
	if client.role != model.RoleTeacher {
		return
	}

	summary, err := h.registry.Summary(client.sessionID)
	if err != nil {
		return
	}

	h.events.Record(client.sessionID, "reveal", summary.AnswerCounts)
	h.router.Broadcast(client.sessionID, countsMessage{Type: MessageTypeReveal, AnswerCounts: summary.AnswerCounts})
}

// handleClose unbinds the channel and tells the session's remaining
// channels what changed. Called once per channel, whether the close was
// voluntary or forced by a missed heartbeat.
func (h *Handler) handleClose(client *Client) {
	if client.sessionID == "" {
		return
	}

	h.router.Unregister(client.sessionID, client)

	var (
		summary model.Summary
		err     error
	)
	switch client.role {
	case model.RoleTeacher:
		summary, err = h.registry.LeaveTeacher(client.sessionID)
		h.events.Record(client.sessionID, "teacher_left", nil)
	case model.RoleStudent:
		summary, err = h.registry.LeaveStudent(client.sessionID, client.participantID)
		h.events.Record(client.sessionID, "student_left", client.participantID)
	default:
		return
	}
	if err != nil {
		return
	}

	h.broadcastSummary(client.sessionID, summary)
}

func (h *Handler) broadcastSummary(sessionID string, summary model.Summary) {
	h.router.Broadcast(sessionID, summaryMessage{Type: MessageTypeSummary, Summary: summary})
}

// readPump pumps frames from the WebSocket connection into the protocol
// handler. It also owns liveness: the read deadline is refreshed by each
// pong, so a peer that stops answering probes times out here and is
// evicted through the deferred close path.
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.handleClose(client)
		client.Close()
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Unparseable frames are dropped with no response.
			continue
		}

		h.handleMessage(client, &msg)
	}
}

// writePump pumps queued messages to the WebSocket connection and sends
// the periodic heartbeat probes.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each message goes in its own frame so clients can parse
			// them independently.
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(client.send)
			for i := 0; i < n; i++ {
				queued := <-client.send
				client.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
