package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SessionReport is the durable artifact of one continuous-recording
// session. Timeline is append-only while the session is live and frozen
// once the report is assembled.
type SessionReport struct {
	ID              uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                          `gorm:"index;not null;column:user_id" json:"user_id"`
	User            *User                              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	StartTime       time.Time                          `gorm:"not null;column:start_time" json:"start_time"`
	EndTime         time.Time                          `gorm:"not null;column:end_time" json:"end_time"`
	DurationSeconds int                                `gorm:"not null;column:duration_seconds" json:"duration_seconds"`
	ActivityType    string                             `gorm:"column:activity_type" json:"activity_type"`
	OverallScore    int                                `gorm:"column:overall_score" json:"overall_score"`
	KeyInsights     datatypes.JSONSlice[string]        `gorm:"column:key_insights" json:"key_insights"`
	Timeline        datatypes.JSONSlice[AnalysisPoint] `gorm:"column:timeline" json:"timeline"`
	VideoBlobKey    string                             `gorm:"column:video_blob_key" json:"video_blob_key,omitempty"`
	PosterBlobKey   string                             `gorm:"column:poster_blob_key" json:"poster_blob_key,omitempty"`
	IsFlagged       bool                               `gorm:"column:is_flagged" json:"is_flagged"`
	CreatedAt       time.Time                          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time                          `gorm:"not null;default:now()" json:"updated_at"`
}

func (SessionReport) TableName() string {
	return "session_report"
}
