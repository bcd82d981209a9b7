// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a DialogTurn.
type Sender uint8

const (
	SenderUser Sender = iota
	SenderAI
	SenderSystem
)

// String returns the wire name of the sender.
func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderAI:
		return "ai"
	case SenderSystem:
		return "system"
	default:
		return fmt.Sprintf("Sender(%d)", uint8(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sender) MarshalText() ([]byte, error) {
	switch s {
	case SenderUser, SenderAI, SenderSystem:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid sender %d", uint8(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sender) UnmarshalText(text []byte) error {
	switch string(text) {
	case "user":
		*s = SenderUser
	case "ai":
		*s = SenderAI
	case "system":
		*s = SenderSystem
	default:
		return fmt.Errorf("invalid sender %q", text)
	}
	return nil
}

// TurnTimeLayout is the display format of DialogTurn.Time.
const TurnTimeLayout = "3:04PM"

// DialogTurn is one entry in a conversation transcript.
type DialogTurn struct {
	ID     string `json:"id" yaml:"id"`
	Sender Sender `json:"sender" yaml:"sender"`
	Time   string `json:"time" yaml:"time"`
	Text   string `json:"text" yaml:"text"`
}

// NewTurn builds a turn with a fresh ID stamped at now.
func NewTurn(sender Sender, text string, now time.Time) DialogTurn {
	return DialogTurn{
		ID:     uuid.NewString(),
		Sender: sender,
		Time:   now.Format(TurnTimeLayout),
		Text:   text,
	}
}
