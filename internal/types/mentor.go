package types

import (
	"time"

	"gorm.io/datatypes"
)

type SessionMode string

const (
	ModeCamera SessionMode = "camera"
	ModeScreen SessionMode = "screen"
)

// Mentor is a persona configuration. Built-in mentors are immutable
// templates shipped with the binary; a row with the same ID overrides the
// template, and deleting that row reverts to it. Custom mentors live only
// as rows.
type Mentor struct {
	ID             string         `gorm:"primaryKey;column:id" json:"id"`
	Name           string         `gorm:"not null;column:name" json:"name"`
	Description    string         `gorm:"column:description" json:"description"`
	Context        string         `gorm:"column:context" json:"context"`
	Goals          string         `gorm:"column:goals" json:"goals"`
	IsDefault      bool                             `gorm:"column:is_default" json:"isDefault"`
	SupportedModes datatypes.JSONSlice[SessionMode] `gorm:"column:supported_modes" json:"supportedModes,omitempty"`
	VoiceRate      float64                          `gorm:"column:voice_rate;default:1" json:"voiceRate"`
	VoicePitch     float64                          `gorm:"column:voice_pitch;default:0" json:"voicePitch"`
	CreatedAt      time.Time                        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time                        `gorm:"not null;default:now()" json:"updated_at"`
}

// SupportsMode reports whether the mentor is available in the given mode.
// An empty SupportedModes list means "available everywhere".
func (m *Mentor) SupportsMode(mode SessionMode) bool {
	if len(m.SupportedModes) == 0 {
		return true
	}
	for _, sm := range m.SupportedModes {
		if sm == mode {
			return true
		}
	}
	return false
}

func (Mentor) TableName() string {
	return "mentor"
}
