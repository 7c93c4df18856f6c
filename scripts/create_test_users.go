//go:build ignore

package main

import (
	"fmt"
	"log"

	"github.com/johnquangdev/interview-assistant/internal/domain/entities"
	"github.com/johnquangdev/interview-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/interview-assistant/pkg/config"
)

func main() {
	log.Println("🚀 Starting test users creation...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	// Define test users
	testUsers := []struct {
		Handle      string
		DisplayName string
		Email       string
		Topic       string
	}{
		{Handle: "alice-test", DisplayName: "Alice", Email: "alice@test.local", Topic: "backend engineering"},
		{Handle: "bob-test", DisplayName: "Bob", Email: "bob@test.local", Topic: "system design"},
		{Handle: "charlie-test", DisplayName: "Charlie", Email: "charlie@test.local", Topic: "behavioral"},
		{Handle: "diana-test", DisplayName: "Diana", Email: "diana@test.local", Topic: "site reliability"},
		{Handle: "eve-test", DisplayName: "Eve", Email: "eve@test.local", Topic: "data engineering"},
	}

	log.Println("🗑️  Cleaning up existing test users...")
	// Delete existing sessions and users
	db.Where("user_handle LIKE ?", "%-test").Delete(&entities.InterviewSession{})
	db.Where("handle LIKE ?", "%-test").Delete(&entities.User{})

	log.Println("🔑 Creating test users and sessions...")

	// Create users and one open session each
	for i, testUser := range testUsers {
		user := entities.NewUser(testUser.Handle, testUser.DisplayName)
		email := testUser.Email
		user.Email = &email

		if err := user.Validate(); err != nil {
			log.Printf("❌ Invalid test user %s: %v", testUser.Handle, err)
			continue
		}

		if err := db.Create(user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", testUser.Handle, err)
			continue
		}

		// Open an active session so capture endpoints can be exercised right away
		session := entities.NewInterviewSession(user.Handle, testUser.Topic)
		if err := db.Create(session).Error; err != nil {
			log.Printf("❌ Failed to create session for %s: %v", testUser.Handle, err)
			continue
		}

		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("🟢 User %d: %s\n", i+1, testUser.DisplayName)
		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("Handle:       %s\n", user.Handle)
		fmt.Printf("Email:        %s\n", email)
		fmt.Printf("User ID:      %s\n", user.ID)
		fmt.Printf("Session ID:   %s\n", session.ID)
		fmt.Printf("Topic:        %s\n", session.Topic)
		fmt.Printf("───────────────────────────────────────────────────────────────\n\n")
	}

	log.Println("✅ All test users created successfully!")
	log.Println("\n💡 Usage:")
	log.Println("   1. Calibrate: POST /v1/sessions/<session_id>/calibrate")
	log.Println("   2. Capture a turn: POST /v1/sessions/<session_id>/turns")
	log.Println("   3. Finalize: POST /v1/sessions/<session_id>/finalize")
	log.Println("\n🧹 To clean up test users, run: DELETE FROM users WHERE handle LIKE '%-test'")
}
