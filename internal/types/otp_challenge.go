package types

import (
	"time"

	"github.com/google/uuid"
)

// OTPChallenge backs the simulated OTP login flow. The code itself is
// never stored, only its bcrypt hash.
type OTPChallenge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"index;not null;column:phone" json:"phone"`
	CodeHash  string    `gorm:"not null;column:code_hash" json:"-"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expires_at"`
	Consumed  bool      `gorm:"column:consumed" json:"consumed"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (OTPChallenge) TableName() string {
	return "otp_challenge"
}
