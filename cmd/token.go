package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/internal/app"
	"github.com/anoixa/mozaiek/utils"
	"github.com/spf13/cobra"
)

// tokenCmd 为纪念馆所有者签发 JWT
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an owner token",
	Long: `Ensure the owner account exists and print a signed owner JWT.

Examples:
  mozaiek token --username anna --name "Anna de Vries"`,
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("username")
		displayName, _ := cmd.Flags().GetString("name")

		if err := runToken(username, displayName); err != nil {
			log.Fatalf("Token failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("username", "", "Owner username")
	tokenCmd.Flags().String("name", "", "Owner display name (defaults to username)")
	_ = tokenCmd.MarkFlagRequired("username")
}

func runToken(username, displayName string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("--username is required")
	}

	config.InitConfig()
	cfg := config.Get()
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not configured")
	}

	container := app.NewContainer(cfg)
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()
	if err := container.AutoMigrate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := container.GetRepositories().Accounts.EnsureUser(ctx, username, displayName)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}

	token, expiresAt, err := container.GetJWTService().GenerateAccessToken(user.Username, user.ID)
	if err != nil {
		return err
	}

	log.Printf("Issued token for %s (id=%d), expires %s", utils.SanitizeLogUsername(user.Username), user.ID, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
	return nil
}
