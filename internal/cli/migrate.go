package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/xgtag/internal/app"
	"github.com/kdimtricp/xgtag/internal/config"
	"github.com/kdimtricp/xgtag/internal/database"
)

type migrationRow struct {
	Version string `json:"version"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		status         bool
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL schema migrations",
		Long: `Apply pending SQL schema migrations for the sqlite and postgres record
backends. Migrations are embedded in the binary; --migrations reads them from a
directory instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			backend := cfg.Records.Backend
			if backend != config.BackendSQLite && backend != config.BackendPostgres {
				return NewExitError(ExitCommandError, fmt.Sprintf("record backend %q has no schema to migrate", backend))
			}
			if migrationsPath == "" {
				migrationsPath = cfg.Records.Database.MigrationsPath
			}

			db, err := app.OpenDatabase(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to connect to database", err)
			}
			defer db.Close()

			f := rootOpts.formatter(cmd)
			migrator := database.NewMigrator(db.Conn(), db.Type(), log)

			if !status {
				if err := migrator.Run(migrationsPath); err != nil {
					return WrapExitError(ExitFailure, "failed to run migrations", err)
				}
				return f.Success(map[string]string{"backend": backend, "result": "up to date"}, func(w io.Writer) {
					fmt.Fprintln(w, "Migrations completed successfully!")
				})
			}

			statuses, err := migrator.Status(migrationsPath)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read migration status", err)
			}
			rows := make([]migrationRow, 0, len(statuses))
			for _, s := range statuses {
				rows = append(rows, migrationRow{Version: s.Version, Name: s.Name, Applied: s.Applied})
			}
			return f.Success(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintf(w, "No versioned migrations for %s; the schema is created on open.\n", backend)
					return
				}
				fmt.Fprintln(w, "Migration Status:")
				fmt.Fprintln(w, "=================")
				for _, r := range rows {
					state := "pending"
					if r.Applied {
						state = "applied"
					}
					fmt.Fprintf(w, "%s - %s [%s]\n", r.Version, r.Name, state)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show migration status only")
	cmd.Flags().StringVar(&migrationsPath, "migrations", "", "read migrations from this directory")
	return cmd
}
