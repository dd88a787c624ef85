package types

import (
	"time"

	"github.com/google/uuid"
)

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageSpanish Language = "spanish"
	LanguageFrench  Language = "french"
)

// Tag maps a user language to the BCP-47 tag used by the speech and
// analysis boundaries.
func (l Language) Tag() string {
	switch l {
	case LanguageSpanish:
		return "es-ES"
	case LanguageFrench:
		return "fr-FR"
	default:
		return "en-US"
	}
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"uniqueIndex;not null;column:phone" json:"phone"`
	Name      string    `gorm:"column:name" json:"name"`
	Language  Language  `gorm:"column:language;default:english" json:"language"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
