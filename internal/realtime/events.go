package realtime

import (
	"encoding/json"

	"chatrelay/internal/conversation"

	"github.com/google/uuid"
)

// Inbound event types.
const (
	EventSendDirectMessage = "send-direct-message"
	EventSendGroupMessage  = "send-group-message"
	EventCallOffer         = "call-offer"
	EventCallAnswer        = "call-answer"
	EventCallEnd           = "call-end"
	EventCallDecline       = "call-decline"
	EventRequestGroupInfo  = "request-group-info"
)

// Outbound event types. EventCallICECandidate is used in both directions.
const (
	EventUserOnline           = "user-online"
	EventUserOffline          = "user-offline"
	EventMessageReceived      = "message-received"
	EventGroupMessageReceived = "group-message-received"
	EventNewUserRegistered    = "new-user-registered"
	EventGroupCreated         = "group-created"
	EventGroupUpdated         = "group-updated"
	EventGroupInfo            = "group-info"
	EventIncomingCall         = "incoming-call"
	EventCallAccepted         = "call-accepted"
	EventCallICECandidate     = "call-ice-candidate"
	EventCallEnded            = "call-ended"
	EventCallDeclined         = "call-declined"
	EventError                = "error"
)

// Event is the frame written to a connection.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Envelope is an inbound frame; Data is decoded by the handler for Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type UserStatus struct {
	UserID uuid.UUID `json:"userId"`
}

// Sender identifies the author of a pushed message.
type Sender struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Picture string    `json:"picture"`
}

type MessageReceived struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
	From Sender `json:"from"`
}

type GroupMessageReceived struct {
	Text    string    `json:"text"`
	GroupID uuid.UUID `json:"groupId"`
	From    Sender    `json:"from"`
	Kind    string    `json:"kind"`
}

type GroupCreated struct {
	Group *conversation.Conversation `json:"group"`
}

type GroupUpdated struct {
	GroupID uuid.UUID `json:"groupId"`
}

type GroupInfo struct {
	GroupID uuid.UUID   `json:"groupId"`
	Members []uuid.UUID `json:"members"`
}

// Caller identifies who placed a call.
type Caller struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Picture  string    `json:"picture"`
}

type IncomingCall struct {
	Offer    json.RawMessage `json:"offer"`
	From     Caller          `json:"from"`
	CallType string          `json:"callType"`
}

type CallAccepted struct {
	Answer json.RawMessage `json:"answer"`
}

type ICECandidate struct {
	Candidate json.RawMessage `json:"candidate"`
}

// Failure tells a connection that one of its requests was not carried out.
type Failure struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
