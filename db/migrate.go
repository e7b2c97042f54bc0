package db

import (
	"fmt"
	"log"

	"github.com/sgweb1/localservices-v3-sub002/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Service{},
		&models.AvailabilityRule{},
		&models.AvailabilityException{},
		&models.Booking{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	fmt.Println("✅ Migrations applied successfully!")
}
