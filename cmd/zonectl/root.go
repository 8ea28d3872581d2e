package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/zone-queue/internal/app"
	"github.com/iliyamo/zone-queue/internal/catalog"
	"github.com/iliyamo/zone-queue/internal/config"
	"github.com/iliyamo/zone-queue/internal/database"
	"github.com/iliyamo/zone-queue/internal/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zonectl",
		Short:         "Administer the zone reservation queues",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPurgeCmd())
	root.AddCommand(newTableCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newResolveCmd())
	return root
}

// withApp loads the configuration, builds the service and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Load()
	logger, err := config.NewLogger(cfg.Env, envOr("LOG_LEVEL", "warn"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the reservation tables in MySQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.StoreBackend != config.StoreMySQL {
				return fmt.Errorf("migrate needs STORE_BACKEND=mysql, got %q", cfg.StoreBackend)
			}
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete lapsed reservations and notify the members concerned",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.PurgeExpired(ctx, nil)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "expired: %d, promoted: %d\n", len(res.ToNotify), len(res.Promotions()))
				for _, n := range a.Relay.Notices(res) {
					fmt.Fprintf(out, "  [%s] %s: %s\n", n.Kind, n.Reservation.UserName, n.Text)
				}
				a.Log.Debug("manual purge", zap.Int("expired", len(res.ToNotify)))
				return nil
			})
		},
	}
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the summary view of every zone queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				snap, err := a.Board.Refresh(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap.Text)
				return nil
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID, name, role, secret string
		ttl                        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a gateway access token for a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("JWT secret required (--secret or JWT_SECRET)")
			}
			tok, err := utils.NewAccessToken(secret, userID, name, strings.ToUpper(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "platform user id (sub claim)")
	cmd.Flags().StringVar(&name, "name", "", "display name shown in the queue")
	cmd.Flags().StringVar(&role, "role", utils.RoleMember, "MEMBER or LEAD")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query>",
		Short: "Show which zone a free-text query resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := config.ZonesFromEnv()
			if err != nil {
				return err
			}
			q := strings.Join(args, " ")
			zone, ok := catalog.New(zones).Resolve(q)
			if !ok {
				return fmt.Errorf("no zone matches %q", q)
			}
			fmt.Fprintln(cmd.OutOrStdout(), zone)
			return nil
		},
	}
}
