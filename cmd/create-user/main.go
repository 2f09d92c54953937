package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/config"
	"github.com/myrobot/academy/internal/logger"
	"github.com/myrobot/academy/internal/models"
	"github.com/myrobot/academy/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	backend, closeBackend, err := store.OpenBackend(ctx, store.BackendConfig{
		Kind:         cfg.StoreBackend,
		DatabasePath: cfg.DatabasePath,
		RedisURL:     cfg.RedisURL,
		RedisPrefix:  cfg.RedisPrefix,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer closeBackend()

	st := store.New(backend)
	svc := auth.NewService(auth.Config{BcryptCost: cfg.BcryptCost}, st)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		s, _ := reader.ReadString('\n')
		return strings.TrimSpace(s)
	}

	fmt.Println("=== Create Portal User ===")

	name := prompt("Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}
	email := prompt("Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println() // Newline after password input

	role := models.Role(strings.ToLower(prompt("Role [admin|coordinator|parent] (default coordinator): ")))
	if role == "" {
		role = models.RoleCoordinator
	}
	if role == models.RoleChild {
		fmt.Println("Error: student accounts are created by parents from the portal")
		return
	}

	u := models.User{Name: name, Email: email, Role: role}
	if role == models.RoleCoordinator {
		if ids := prompt("Course IDs, comma separated (optional): "); ids != "" {
			for _, id := range strings.Split(ids, ",") {
				if id = strings.TrimSpace(id); id != "" {
					u.CourseIDs = append(u.CourseIDs, id)
				}
			}
		}
	}

	created, err := svc.CreateUser(ctx, u, string(bytePassword))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %s\n", created.Role, created.Name, created.Email, created.ID)
}
