// Package user implements the `opsync user` command group for provisioning
// analyst accounts. There is no self-service registration endpoint.
package user

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"opsync/internal/application/user/usecases"
	"opsync/internal/infrastructure/auth"
	"opsync/internal/infrastructure/config"
	"opsync/internal/infrastructure/database"
	"opsync/internal/infrastructure/repository"
	"opsync/internal/shared/biztime"
	"opsync/internal/shared/logger"
)

var (
	env         string
	username    string
	displayName string
	role        string
	password    string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage analyst accounts",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newCreateCommand(),
		newListCommand(),
	)

	return cmd
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an analyst account",
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Login username (required)")
	cmd.Flags().StringVarP(&displayName, "display-name", "d", "", "Display name shown on lock badges (defaults to username)")
	cmd.Flags().StringVarP(&role, "role", "r", "analyst", "Role (admin or analyst)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted interactively when omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List analyst accounts",
		RunE:  runList,
	}
}

func initEnv() (logger.Interface, *config.Config, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(biztime.DefaultTimezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return logger.NewLogger(), cfg, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	log, cfg, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	if password == "" {
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	userRepo := repository.NewUserRepository(database.Get())
	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)

	uc := usecases.NewCreateUserUseCase(userRepo, hasher, log)
	created, err := uc.Execute(context.Background(), usecases.CreateUserCommand{
		Username:    username,
		DisplayName: displayName,
		Password:    password,
		Role:        role,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("created user %s (id=%d, role=%s)\n", created.Username, created.ID, created.Role)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	_, _, err := initEnv()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	userRepo := repository.NewUserRepository(database.Get())
	users, err := userRepo.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range users {
		fmt.Printf("%-6d %-20s %-24s %s\n", u.ID, u.Username, u.DisplayName, u.Role)
	}
	return nil
}
