package ws

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"snapclash/internal/game"
	"snapclash/logger"
)

// Inbound event names.
const (
	evCreateRoom = "create_room"
	evJoinRoom   = "join_room"
	evStartRound = "start_round"
	evSubmit     = "submit_photo"
	evVoteBest   = "vote_best"
	evFlagLazy   = "flag_lazy"
	evEndRound   = "end_round"
	evLeaveRoom  = "leave_room"

	evAck = "ack"
)

// ack is the error-first acknowledgement frame for one request.
type ack struct {
	Seq    int64  `json:"seq"`
	Event  string `json:"event"`
	Error  string `json:"error,omitempty"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
}

type createRoomReq struct {
	Name string `json:"name"`
}

type joinRoomReq struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type startRoundReq struct {
	Code        string `json:"code"`
	Mode        string `json:"mode"`
	DurationSec int    `json:"durationSec"`
}

type submitPhotoReq struct {
	Code    string `json:"code"`
	Payload string `json:"payload"`
}

type targetReq struct {
	Code     string `json:"code"`
	TargetID string `json:"targetId"`
}

type codeReq struct {
	Code string `json:"code"`
}

// Handler owns a websocket connection's lifecycle and routes its events into
// the state machine.
type Handler struct {
	hub     *Hub
	machine *game.Machine
}

func NewHandler(hub *Hub, machine *game.Machine) *Handler {
	return &Handler{hub: hub, machine: machine}
}

// Handle runs for the lifetime of one websocket connection. The read loop
// runs on its own goroutine; the write pump keeps the fiber handler alive.
func (h *Handler) Handle(sock *websocket.Conn) {
	c := newConn(uuid.NewString(), sock)
	h.hub.add(c)
	logger.Debug("conn %s opened", c.ID)

	go h.readPump(c)
	c.writePump()
}

func (h *Handler) readPump(c *Conn) {
	defer func() {
		// Leave the hub first so in-flight broadcasts stop targeting this
		// conn, then let the game remove the player everywhere.
		h.hub.drop(c.ID)
		h.machine.Disconnect(c.ID)
		c.close()
		logger.Debug("conn %s closed", c.ID)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, raw, err := c.sock.ReadMessage()
			if err != nil {
				return
			}

			var msg WSMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				logger.Warn("invalid frame from conn %s: %v", c.ID, err)
				continue
			}
			h.route(c, msg)
		}
	}
}

func (h *Handler) route(c *Conn, msg WSMessage) {
	switch msg.Type {
	case evCreateRoom:
		var req createRoomReq
		if !h.decode(c, msg, &req) {
			return
		}
		code, err := h.machine.CreateRoom(c.ID, req.Name)
		if err != nil {
			h.sendAck(c, ack{Seq: msg.Seq, Event: msg.Type, Error: err.Error()})
			return
		}
		h.ackOK(c, msg, map[string]string{"code": code})

	case evJoinRoom:
		var req joinRoomReq
		if !h.decode(c, msg, &req) {
			return
		}
		view := h.machine.JoinRoom(c.ID, req.Code, req.Name)
		h.ackOK(c, msg, view)

	case evStartRound:
		var req startRoundReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.ackErr(c, msg, h.machine.StartRound(c.ID, req.Code, req.Mode, req.DurationSec))

	case evSubmit:
		var req submitPhotoReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.machine.SubmitPhoto(c.ID, req.Code, req.Payload)
		h.ackOK(c, msg, nil)

	case evVoteBest:
		var req targetReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.machine.VoteBest(c.ID, req.Code, req.TargetID)
		h.ackOK(c, msg, nil)

	case evFlagLazy:
		var req targetReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.machine.FlagLazy(c.ID, req.Code, req.TargetID)
		h.ackOK(c, msg, nil)

	case evEndRound:
		var req codeReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.ackErr(c, msg, h.machine.EndRound(c.ID, req.Code))

	case evLeaveRoom:
		// No ack for leaving, matching the client contract.
		var req codeReq
		if !h.decode(c, msg, &req) {
			return
		}
		h.machine.LeaveRoom(c.ID, req.Code)

	default:
		logger.Warn("conn %s sent unknown event %q", c.ID, msg.Type)
	}
}

func (h *Handler) decode(c *Conn, msg WSMessage, into any) bool {
	if len(msg.Data) == 0 {
		msg.Data = []byte("{}")
	}
	if err := json.Unmarshal(msg.Data, into); err != nil {
		logger.Warn("invalid %s payload from conn %s: %v", msg.Type, c.ID, err)
		h.sendAck(c, ack{Seq: msg.Seq, Event: msg.Type, Error: "invalid payload"})
		return false
	}
	return true
}

func (h *Handler) ackOK(c *Conn, msg WSMessage, result any) {
	h.sendAck(c, ack{Seq: msg.Seq, Event: msg.Type, OK: true, Result: result})
}

// ackErr turns a machine error into a failed ack. Nothing is broadcast on
// failure; the room state is untouched.
func (h *Handler) ackErr(c *Conn, msg WSMessage, err error) {
	if err != nil {
		h.sendAck(c, ack{Seq: msg.Seq, Event: msg.Type, Error: err.Error()})
		return
	}
	h.ackOK(c, msg, nil)
}

func (h *Handler) sendAck(c *Conn, a ack) {
	frame, err := encode(evAck, a.Seq, a)
	if err != nil {
		logger.Error("ack marshal failed for conn %s: %v", c.ID, err)
		return
	}
	c.enqueue(frame)
}
