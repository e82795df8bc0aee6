// main.go - Admin control tool for Lovdash
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"lovdash/internal"
	"lovdash/internal/auth"
	"lovdash/internal/links"
	"lovdash/internal/seeder"
	"lovdash/internal/users"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&CreateAdminUserCommand{},
	&CreateCreatorCommand{},
	&TokenCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Unknown command. Run 'lovdashctl help' for usage.")
	os.Exit(1)
}

func requireDB(app *internal.Application) (*gorm.DB, error) {
	if app == nil {
		return nil, fmt.Errorf("app initialization failed, cannot connect to database")
	}
	return app.DBManager.GetConnection(), nil
}

// CreateAdminUserCommand creates the initial platform admin.
type CreateAdminUserCommand struct{}

func (c *CreateAdminUserCommand) Name() string        { return "create-admin-user" }
func (c *CreateAdminUserCommand) Description() string { return "Creates an initial admin user" }

func (c *CreateAdminUserCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <email> <password>", c.Name())
	}

	email := args[0]
	password := args[1]

	db, err := requireDB(app)
	if err != nil {
		return err
	}

	log.Printf("Setting up admin user with email: %s", email)
	if err := users.CreateAdminUser(db, email, password); err != nil {
		if errors.Is(err, users.ErrUserExists) {
			log.Printf("User %s already exists", email)
			return nil
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// CreateCreatorCommand registers a creator together with their bio link.
type CreateCreatorCommand struct{}

func (c *CreateCreatorCommand) Name() string { return "create-creator" }
func (c *CreateCreatorCommand) Description() string {
	return "Creates a creator account with a bio link slug"
}

func (c *CreateCreatorCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: %s <email> <username> <password> <slug> [agency-id]", c.Name())
	}

	db, err := requireDB(app)
	if err != nil {
		return err
	}

	creator, err := users.CreateUser(db, args[0], args[1], args[2], users.RoleCreator)
	if err != nil {
		return fmt.Errorf("failed to create creator: %w", err)
	}

	if len(args) >= 5 {
		agencyID, err := strconv.ParseUint(args[4], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid agency id %q: %w", args[4], err)
		}
		id := uint(agencyID)
		creator.AgencyID = &id
		if err := db.Save(creator).Error; err != nil {
			return fmt.Errorf("failed to assign agency: %w", err)
		}
	}

	link := &links.BioLink{CreatorID: creator.ID, Slug: args[3]}
	if err := db.Create(link).Error; err != nil {
		return fmt.Errorf("failed to create bio link: %w", err)
	}

	log.Printf("Created creator %s with bio link id %d (slug %s)", creator.Username, link.ID, link.Slug)
	return nil
}

// TokenCommand issues a bearer token for an existing user.
type TokenCommand struct{}

func (c *TokenCommand) Name() string        { return "token" }
func (c *TokenCommand) Description() string { return "Issues an API bearer token for a user" }

func (c *TokenCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <email>", c.Name())
	}

	db, err := requireDB(app)
	if err != nil {
		return err
	}

	user, err := users.FindByEmail(db, args[0])
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	token, err := auth.IssueToken(user)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with demo creators and tracking events.
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds demo creators, links and events" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot seed")
	}

	eventCount := 5000
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid event count %q", args[0])
		}
		eventCount = n
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	s := seeder.NewSeeder(app.DBManager, slog.Default(), eventCount)
	return s.Seed()
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db, err := requireDB(app)
	if err != nil {
		return err
	}

	var userCount, linkCount int64
	if err := db.Model(&users.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if err := db.Model(&links.BioLink{}).Count(&linkCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Users: %d", userCount)
	log.Printf("- Bio links: %d", linkCount)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: lovdashctl [command] [args...]")
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}
