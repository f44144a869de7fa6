package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"boting/backend/internal/config"
	"boting/backend/internal/logging"
	"boting/backend/internal/storage"

	"github.com/spf13/cobra"
)

var storageSvc *storage.Service

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator tools for the BoTing relay audit store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel, cfg.LogFormat)

		svc := storage.NewStorageService(nil, nil, cfg.RedisChannel)
		if cfg.DatabaseDSN != "" {
			db, err := storage.OpenDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			svc.DB = db
		}
		if cfg.RedisAddr != "" {
			rdb, err := storage.OpenRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			svc.Redis = rdb
		}
		storageSvc = svc
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if storageSvc == nil {
			return nil
		}
		if storageSvc.Redis != nil {
			storageSvc.Redis.Close()
		}
		if storageSvc.DB != nil {
			if sqlDB, err := storageSvc.DB.DB(); err == nil {
				return sqlDB.Close()
			}
		}
		return nil
	},
	SilenceUsage: true,
}

func requireDB(cmd *cobra.Command, args []string) error {
	if storageSvc.DB == nil {
		return fmt.Errorf("DATABASE_DSN is not set")
	}
	return nil
}

func limitArg(args []string) (int, error) {
	if len(args) == 0 {
		return 20, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", args[0])
	}
	return n, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

var roomsCmd = &cobra.Command{
	Use:     "rooms [limit]",
	Short:   "List the most recently created rooms",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: requireDB,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := limitArg(args)
		if err != nil {
			return err
		}
		rooms, err := storageSvc.ListRooms(limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROOM\tNAME\tLINK\tACTIVE\tCREATED\tCLOSED")
		for _, r := range rooms {
			created := r.CreatedAt
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n", r.RoomID, r.DisplayName, r.JoinLink, r.IsActive, formatTime(&created), formatTime(r.ClosedAt))
		}
		return w.Flush()
	},
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions [limit]",
	Short:   "List the most recently started random chat sessions",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: requireDB,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := limitArg(args)
		if err != nil {
			return err
		}
		sessions, err := storageSvc.ListSessions(limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tACTIVE\tSTARTED\tENDED\tREASON")
		for _, s := range sessions {
			started := s.StartedAt
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", s.SessionID, s.IsActive, formatTime(&started), formatTime(s.EndedAt), s.EndReason)
		}
		return w.Flush()
	},
}

var purgeCmd = &cobra.Command{
	Use:     "purge <days>",
	Short:   "Delete closed rooms and ended sessions older than the given number of days",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireDB,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := strconv.Atoi(args[0])
		if err != nil || days < 0 {
			return fmt.Errorf("invalid number of days %q", args[0])
		}
		n, err := storageSvc.PurgeBefore(time.Now().Add(-time.Duration(days) * 24 * time.Hour))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d audit rows.\n", n)
		return nil
	},
}

var banCmd = &cobra.Command{
	Use:   "ban <anon_id> [duration_in_hours]",
	Short: "Refuse websocket connections for an anonymous id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var duration time.Duration
		if len(args) > 1 {
			hours, err := strconv.Atoi(args[1])
			if err != nil || hours < 0 {
				return fmt.Errorf("invalid duration %q", args[1])
			}
			duration = time.Duration(hours) * time.Hour
		}
		if err := storageSvc.BanUser(args[0], duration); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s has been banned.\n", args[0])
		return nil
	},
}

var unbanCmd = &cobra.Command{
	Use:   "unban <anon_id>",
	Short: "Lift a ban",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := storageSvc.UnbanUser(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s has been unbanned.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd, sessionsCmd, purgeCmd, banCmd, unbanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
