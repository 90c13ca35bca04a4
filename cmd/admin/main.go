// Package main provides account management utilities for Quill.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go promote <user_id>     - Promote user to admin")
		fmt.Println("  go run ./cmd/admin/main.go demote <user_id>      - Demote user from admin")
		fmt.Println("  go run ./cmd/admin/main.go activate <user_id>    - Activate an unconfirmed account")
		fmt.Println("  go run ./cmd/admin/main.go list-admins           - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "promote":
		setAdmin(db, argUserID(command), true)
	case "demote":
		setAdmin(db, argUserID(command), false)
	case "activate":
		activate(db, argUserID(command))
	case "list-admins":
		listAdmins(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func argUserID(command string) string {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <user_id>\n", command)
		os.Exit(1)
	}
	return os.Args[2]
}

func loadUser(db *gorm.DB, userID string) *models.User {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}
	return &user
}

func setAdmin(db *gorm.DB, userID string, admin bool) {
	user := loadUser(db, userID)
	if user.IsAdmin == admin {
		fmt.Printf("User %s (ID: %d) already has is_admin=%v\n", user.Username, user.ID, admin)
		return
	}

	user.IsAdmin = admin
	if err := db.Save(user).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("User %s (ID: %d) is_admin set to %v\n", user.Username, user.ID, admin)
}

func activate(db *gorm.DB, userID string) {
	user := loadUser(db, userID)
	if user.IsActive {
		fmt.Printf("User %s (ID: %d) is already active\n", user.Username, user.ID)
		return
	}

	user.IsActive = true
	if err := db.Save(user).Error; err != nil {
		log.Fatalf("Failed to activate user: %v", err)
	}
	fmt.Printf("User %s (ID: %d) activated\n", user.Username, user.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		log.Fatalf("Failed to list admins: %v", err)
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}
	for _, admin := range admins {
		fmt.Printf("  %d  %s  %s\n", admin.ID, admin.Username, admin.Email)
	}
}
