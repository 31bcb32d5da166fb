package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/coursify-backend/internal/app"
	"github.com/yungbote/coursify-backend/internal/data/repos"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for local testing",
	Long: "Mint a session token. With --user the token is signed for that ID as is; " +
		"with only --email the user is looked up (or registered) in the database first.",
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("user", "", "User ID (UUID) to put in the token subject")
	tokenCmd.Flags().String("email", "", "Email claim; registers the user when --user is omitted")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rawUser, _ := cmd.Flags().GetString("user")
	email, _ := cmd.Flags().GetString("email")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	var userID uuid.UUID
	switch {
	case rawUser != "":
		userID, err = uuid.Parse(rawUser)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}
	case email != "":
		userID, err = ensureUser(cmd, cfg, email)
		if err != nil {
			return err
		}
	default:
		return errors.New("one of --user or --email is required")
	}

	auth := services.NewAuthService(logger.Nop(), nil, cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL)
	token, err := auth.MintToken(userID, email, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func ensureUser(cmd *cobra.Command, cfg app.Config, email string) (uuid.UUID, error) {
	log, err := app.NewLogger(cfg)
	if err != nil {
		return uuid.Nil, err
	}
	defer log.Sync()

	dbSvc, err := app.OpenDatabase(cfg, log)
	if err != nil {
		return uuid.Nil, err
	}
	defer dbSvc.Close()

	auth := services.NewAuthService(log, repos.NewUserRepo(dbSvc.DB(), log), cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL)
	u, err := auth.EnsureUser(cmd.Context(), email)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}
