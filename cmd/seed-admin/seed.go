package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redmonkez12/storefront-api/cmd/seed-admin/ui"
	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/auth"
	"github.com/redmonkez12/storefront-api/internal/config"
	"github.com/redmonkez12/storefront-api/internal/email"
	"github.com/redmonkez12/storefront-api/internal/logging"
)

// Test seams for the terminal and the interactive form.
var (
	isTerminal = term.IsTerminal
	runForm    = ui.RunForm
)

var (
	errNoPassword = errors.New("ADMIN_PASSWORD is not set and stdin is not a terminal")
	errNoIdentity = errors.New("--name and --email are required when stdin is not a terminal")
)

type provisioner interface {
	ProvisionAdmin(ctx context.Context, name, email, password string) (*account.Account, error)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	emailAddr, _ := cmd.Flags().GetString("email")

	in, err := collectInput(name, emailAddr, os.Getenv("ADMIN_PASSWORD"))
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStore, err := account.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer closeStore(context.Background())

	svc, err := newService(cfg, store)
	if err != nil {
		return err
	}

	created, err := seedAdmin(ctx, svc, in)
	if err != nil {
		return err
	}

	if created == nil {
		ui.PrintExists(in.Email)
		return nil
	}

	ui.PrintCreated(created.ID.String(), created.Email)
	return nil
}

// collectInput fills the admin input from flags and the environment, and
// falls back to the interactive form for whatever is missing.
func collectInput(name, emailAddr, password string) (*ui.AdminInput, error) {
	in := &ui.AdminInput{Name: name, Email: emailAddr, Password: password}
	if !in.Missing() {
		return in, nil
	}

	if !isTerminal(int(os.Stdin.Fd())) {
		if in.Password == "" {
			return nil, errNoPassword
		}
		return nil, errNoIdentity
	}

	if err := runForm(in); err != nil {
		return nil, fmt.Errorf("form cancelled: %w", err)
	}
	return in, nil
}

func newService(cfg *config.Config, store account.Store) (*auth.Service, error) {
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	clock := auth.SystemClock{}

	tokens, err := auth.NewTokenService(cfg.Auth, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params)
	return auth.NewService(
		store,
		hasher,
		tokens,
		auth.NewResetManager(store, hasher, clock),
		email.NewService(cfg.Email),
		logger,
	), nil
}

// seedAdmin provisions the admin account. An already registered email
// returns a nil account and no error.
func seedAdmin(ctx context.Context, svc provisioner, in *ui.AdminInput) (*account.Account, error) {
	acc, err := svc.ProvisionAdmin(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to provision admin: %w", err)
	}
	return acc, nil
}
