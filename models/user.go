package models

import (
	"time"
)

type User struct {
	ID                uint                    `json:"id" gorm:"primaryKey"`
	Name              string                  `json:"name"`
	Email             string                  `json:"email" gorm:"unique"`
	Password          string                  `json:"-"`
	RoleID            uint                    `json:"role_id"`
	Role              Role                    `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	ProvidedServices  []Service               `json:"provided_services,omitempty" gorm:"foreignKey:ProviderID"`
	AvailabilityRules []AvailabilityRule      `json:"availability_rules,omitempty" gorm:"foreignKey:ProviderID"`
	Exceptions        []AvailabilityException `json:"exceptions,omitempty" gorm:"foreignKey:ProviderID"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}
