package cmd

import (
	"fmt"
	"time"

	"github.com/solatis/shelfwright/internal/core/db"
	"github.com/solatis/shelfwright/internal/render"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDBURL(); err != nil {
			return err
		}
		database, err := db.Open(dbURL)
		if err != nil {
			return err
		}
		defer database.Close()

		applied, err := db.MigrateUp(database)
		for _, id := range applied {
			logger.Info("applied migration", "migration_id", id)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			logger.Info("database is up to date")
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDBURL(); err != nil {
			return err
		}
		database, err := db.Open(dbURL)
		if err != nil {
			return err
		}
		defer database.Close()

		statuses, err := db.MigrateStatus(database)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), migrationTable(statuses))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrationTable(statuses []db.MigrationStatus) string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		state, at, took := "pending", "-", "-"
		if st.Applied {
			state = "applied"
			took = (time.Duration(st.ExecutionMs) * time.Millisecond).String()
			if st.AppliedAt != nil {
				at = st.AppliedAt.Format(time.RFC3339)
			}
		}
		rows = append(rows, []string{st.ID, state, at, took})
	}
	return render.Table([]string{"MIGRATION", "STATUS", "APPLIED AT", "DURATION"}, rows)
}
