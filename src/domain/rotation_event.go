package domain

import (
	"time"

	"github.com/google/uuid"
)

type RotationEventType string

const (
	RotationEventActivated   RotationEventType = "activated"
	RotationEventDeactivated RotationEventType = "deactivated"
	RotationEventRebuilt     RotationEventType = "rebuilt"
)

// RotationEvent is broadcast to other instances whenever a tick changes the active challenge.
type RotationEvent struct {
	Type        RotationEventType `json:"type"`
	ChallengeID int64             `json:"challenge_id,omitempty"`
	TickID      uuid.UUID         `json:"tick_id"`
	At          time.Time         `json:"at"`
}
