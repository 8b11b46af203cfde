package main

import (
	"context"
	"flag"
	"fmt"
	"huddle-backend/config"
	"huddle-backend/internal/auth"
	"huddle-backend/internal/database"
	"huddle-backend/internal/models"
	"huddle-backend/internal/repository"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	createUser   = flag.Bool("create", false, "Create a new user")
	deleteUser   = flag.Bool("delete", false, "Delete a user and the meetings they host")
	listMeetings = flag.Bool("meetings", false, "List the meetings a user hosts")
	purgeTokens  = flag.Bool("purge-tokens", false, "Delete expired refresh token revocations")

	configPath = flag.String("config", "config.yaml", "Path to the configuration file")
	email      = flag.String("email", "", "User's email")
	password   = flag.String("password", "", "User's password")
	name       = flag.String("name", "", "User's name")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := database.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	userRepo := repository.NewUserRepository(database.GetDB())
	meetingRepo := repository.NewMeetingRepository(database.GetDB())

	switch {
	case *createUser:
		return handleCreateUser(userRepo)
	case *deleteUser:
		return handleDeleteUser(userRepo)
	case *listMeetings:
		return handleListMeetings(userRepo, meetingRepo)
	case *purgeTokens:
		return handlePurgeTokens(userRepo)
	default:
		printUsage()
		return nil
	}
}

func handleCreateUser(userRepo *repository.UserRepository) error {
	if *email == "" || *password == "" || *name == "" {
		return fmt.Errorf("email, password, and name are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(*email),
		Password:  string(hashedPassword),
		Name:      *name,
		Provider:  auth.ProviderLocal,
		Accesses:  models.StringArray{string(models.AccessUser)},
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := userRepo.CreateUser(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Successfully created user: %s\n", user.Email)
	return nil
}

func findUser(userRepo *repository.UserRepository) (*models.User, error) {
	if *email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := userRepo.GetUserByEmail(strings.ToLower(*email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func handleDeleteUser(userRepo *repository.UserRepository) error {
	user, err := findUser(userRepo)
	if err != nil {
		return err
	}

	if err := userRepo.DeleteUser(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("Successfully deleted user: %s\n", user.Email)
	return nil
}

func handleListMeetings(userRepo *repository.UserRepository, meetingRepo *repository.MeetingRepository) error {
	user, err := findUser(userRepo)
	if err != nil {
		return err
	}

	ctx := context.Background()
	meetings, err := meetingRepo.ListMeetingsByHost(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list meetings: %w", err)
	}

	ids := make([]string, 0, len(meetings))
	for _, m := range meetings {
		ids = append(ids, m.ID)
	}
	counts, err := meetingRepo.CountParticipants(ctx, ids...)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM CODE\tSTATUS\tPARTICIPANTS\tCREATED\tTITLE")
	for _, m := range meetings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			m.RoomCode, m.Status, counts[m.ID], m.CreatedAt.Format(time.RFC3339), m.Title)
	}
	return w.Flush()
}

func handlePurgeTokens(userRepo *repository.UserRepository) error {
	purged, err := userRepo.PurgeExpiredRevocations()
	if err != nil {
		return fmt.Errorf("failed to purge revocations: %w", err)
	}

	fmt.Printf("Purged %d expired revocations\n", purged)
	return nil
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  Create user:    cli -create -email=user@example.com -password=secret -name=\"John Doe\"")
	fmt.Println("  Delete user:    cli -delete -email=user@example.com")
	fmt.Println("  List meetings:  cli -meetings -email=user@example.com")
	fmt.Println("  Purge tokens:   cli -purge-tokens")
}
