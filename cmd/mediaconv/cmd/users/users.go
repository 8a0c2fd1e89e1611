package users

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"mediaconv/cmd/mediaconv/cmd/shared"
	"mediaconv/internal/app"
	"mediaconv/internal/app/model"
	"mediaconv/internal/app/repository"
	"mediaconv/internal/app/repository/migrate"
	"mediaconv/internal/app/usage"
	"mediaconv/internal/config"
)

var (
	fromDriver string
	fromDSN    string
	tokenTTL   time.Duration
	revoke     bool
)

func init() {
	migrateCmd.Flags().StringVar(&fromDriver, "from-driver", "sqlite", "source store driver: memory, sqlite, postgres or redis")
	migrateCmd.Flags().StringVar(&fromDSN, "from-dsn", "", "source store DSN, or redis address for the redis driver")
	_ = migrateCmd.MarkFlagRequired("from-dsn")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	proCmd.Flags().BoolVar(&revoke, "revoke", false, "remove unlimited access instead of granting it")

	Cmd.AddCommand(addCmd, grantCmd, proCmd, listCmd, migrateCmd, tokenCmd)
}

// Cmd represents the users command
var Cmd = &cobra.Command{
	Use:   "users",
	Short: "Manage identities and their entitlements",
}

var addCmd = &cobra.Command{
	Use:   "add <identity>",
	Short: "Provision an identity with the configured free uses; existing identities are left as they are",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store repository.EntitlementDAO, cfg *config.Config) error {
			gate := usage.NewGate(store, cfg.Usage.FreeUseCap, cfg.Usage.CostPerUse, shared.Logger(cfg))
			e, err := gate.Provision(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s has %d free uses, %s credits\n",
				e.ID, e.FreeUsesRemaining, humanize.Comma(e.CreditBalance))
			return nil
		})
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <identity> <credits>",
	Short: "Add credits to an identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		credits, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || credits <= 0 {
			return fmt.Errorf("credits must be a positive integer, got %q", args[1])
		}
		return withStore(cmd, func(ctx context.Context, store repository.EntitlementDAO, _ *config.Config) error {
			e, err := store.Grant(ctx, args[0], credits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %s credits\n", e.ID, humanize.Comma(e.CreditBalance))
			return nil
		})
	},
}

var proCmd = &cobra.Command{
	Use:   "pro <identity>",
	Short: "Give an identity unlimited conversions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store repository.EntitlementDAO, _ *config.Config) error {
			if err := store.SetUnlimited(ctx, args[0], !revoke); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unlimited=%t\n", args[0], !revoke)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every identity and its entitlement",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store repository.EntitlementDAO, _ *config.Config) error {
			rows, err := store.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFREE USES\tCREDITS\tUNLIMITED\tUPDATED")
			for _, e := range rows {
				fmt.Fprintf(w, "%s\t%d\t%s\t%t\t%s\n", e.ID, e.FreeUsesRemaining,
					humanize.Comma(e.CreditBalance), e.Unlimited, humanize.Time(e.UpdatedAt))
			}
			unlimited := lo.CountBy(rows, func(e model.Entitlement) bool { return e.Unlimited })
			fmt.Fprintf(w, "\n%d identities, %d unlimited\n", len(rows), unlimited)
			return w.Flush()
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every entitlement from another store into the configured one",
	Long: `Copy every entitlement from another store into the configured one.

Example:
  mediaconv users migrate --from-driver sqlite --from-dsn data/mediaconv.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, dst repository.EntitlementDAO, cfg *config.Config) error {
			sc := config.StoreConfig{Driver: fromDriver, DSN: fromDSN}
			if fromDriver == "redis" {
				sc = config.StoreConfig{Driver: fromDriver, RedisAddr: fromDSN}
			}
			src, closeSrc, err := app.OpenEntitlementStore(ctx, sc, shared.Logger(cfg))
			if err != nil {
				return fmt.Errorf("open source store: %w", err)
			}
			defer closeSrc()

			report, err := migrate.Copy(ctx, src, dst, shared.Logger(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d, skipped %d\n", report.Copied, report.Skipped)
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <identity>",
	Short: "Issue a bearer token for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := shared.Bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		token, err := application.Verifier.Issue(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, store repository.EntitlementDAO, cfg *config.Config) error) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}
	store, closeStore, err := app.OpenEntitlementStore(cmd.Context(), cfg.Store, shared.Logger(cfg))
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), store, cfg)
}
