package main

import (
	"log"

	"github.com/teamforge/server/internal/module/application"
	"github.com/teamforge/server/internal/module/invitation"
	"github.com/teamforge/server/internal/module/profile"
	"github.com/teamforge/server/internal/module/team"
	"github.com/teamforge/server/internal/shared/config"
	"github.com/teamforge/server/internal/shared/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	log.Println("Running migrations...")

	if err := db.AutoMigrate(
		&profile.Profile{},
		&profile.Skill{},
		&team.Team{},
		&team.TeamMember{},
		&team.Opening{},
		&application.Application{},
		&invitation.Invitation{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed")
}
