// Package signaling forwards call-setup messages between two peers. The relay
// keeps no call state; every operation is a single forward.
package signaling

import (
	"context"
	"encoding/json"

	"chatrelay/infrastructure"
	"chatrelay/internal/metrics"
	"chatrelay/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pusher delivers an event to a user's live connection.
type Pusher interface {
	PushToUser(ctx context.Context, userID uuid.UUID, ev realtime.Event) bool
}

type Relay struct {
	pusher  Pusher
	metrics *metrics.Recorder
	log     *zap.Logger
}

func NewRelay(pusher Pusher, recorder *metrics.Recorder, log *zap.Logger) *Relay {
	return &Relay{pusher: pusher, metrics: recorder, log: log}
}

// Offer forwards a call offer with the caller attached. Forwarded is false
// when the callee is offline and the offer was dropped.
func (r *Relay) Offer(ctx context.Context, from infrastructure.Identity, to uuid.UUID, offer json.RawMessage, callType string) bool {
	return r.forward(ctx, "offer", from.UserID, to, realtime.Event{
		Type: realtime.EventIncomingCall,
		Data: realtime.IncomingCall{
			Offer: offer,
			From: realtime.Caller{
				UserID:   from.UserID,
				Username: from.Username,
				Picture:  from.Picture,
			},
			CallType: callType,
		},
	})
}

func (r *Relay) Answer(ctx context.Context, from infrastructure.Identity, to uuid.UUID, answer json.RawMessage) bool {
	return r.forward(ctx, "answer", from.UserID, to, realtime.Event{
		Type: realtime.EventCallAccepted,
		Data: realtime.CallAccepted{Answer: answer},
	})
}

func (r *Relay) ICECandidate(ctx context.Context, from infrastructure.Identity, to uuid.UUID, candidate json.RawMessage) bool {
	return r.forward(ctx, "ice-candidate", from.UserID, to, realtime.Event{
		Type: realtime.EventCallICECandidate,
		Data: realtime.ICECandidate{Candidate: candidate},
	})
}

func (r *Relay) End(ctx context.Context, from infrastructure.Identity, to uuid.UUID) bool {
	return r.forward(ctx, "end", from.UserID, to, realtime.Event{Type: realtime.EventCallEnded})
}

func (r *Relay) Decline(ctx context.Context, from infrastructure.Identity, to uuid.UUID) bool {
	return r.forward(ctx, "decline", from.UserID, to, realtime.Event{Type: realtime.EventCallDeclined})
}

func (r *Relay) forward(ctx context.Context, kind string, from, to uuid.UUID, ev realtime.Event) bool {
	forwarded := r.pusher.PushToUser(ctx, to, ev)
	r.metrics.Signal(kind, forwarded)
	if !forwarded {
		r.log.Debug("signal dropped, recipient offline",
			zap.String("kind", kind),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return forwarded
}
