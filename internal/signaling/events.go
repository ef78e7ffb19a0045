package signaling

import (
	"context"
	"encoding/json"

	"chatrelay/internal/realtime"

	"github.com/google/uuid"
)

type offerRequest struct {
	Offer    json.RawMessage `json:"offer"`
	ToUserID uuid.UUID       `json:"toUserId"`
	CallType string          `json:"callType"`
}

type answerRequest struct {
	Answer   json.RawMessage `json:"answer"`
	ToUserID uuid.UUID       `json:"toUserId"`
}

type candidateRequest struct {
	Candidate json.RawMessage `json:"candidate"`
	ToUserID  uuid.UUID       `json:"toUserId"`
}

type peerRequest struct {
	ToUserID uuid.UUID `json:"toUserId"`
}

// Register attaches the call events to d.
func (r *Relay) Register(d *realtime.Dispatcher) {
	d.Handle(realtime.EventCallOffer, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var req offerRequest
		if err := realtime.Decode(data, &req); err != nil {
			return err
		}
		r.Offer(ctx, s.Identity, req.ToUserID, req.Offer, req.CallType)
		return nil
	})
	d.Handle(realtime.EventCallAnswer, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var req answerRequest
		if err := realtime.Decode(data, &req); err != nil {
			return err
		}
		r.Answer(ctx, s.Identity, req.ToUserID, req.Answer)
		return nil
	})
	d.Handle(realtime.EventCallICECandidate, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var req candidateRequest
		if err := realtime.Decode(data, &req); err != nil {
			return err
		}
		r.ICECandidate(ctx, s.Identity, req.ToUserID, req.Candidate)
		return nil
	})
	d.Handle(realtime.EventCallEnd, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var req peerRequest
		if err := realtime.Decode(data, &req); err != nil {
			return err
		}
		r.End(ctx, s.Identity, req.ToUserID)
		return nil
	})
	d.Handle(realtime.EventCallDecline, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var req peerRequest
		if err := realtime.Decode(data, &req); err != nil {
			return err
		}
		r.Decline(ctx, s.Identity, req.ToUserID)
		return nil
	})
}
