package models

import (
	"gorm.io/gorm"
)

type Service struct {
	gorm.Model
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" gorm:"default:60"`
	Price           float64 `json:"price"`
	ProviderID      uint    `json:"provider_id"`
	Provider        User    `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}
