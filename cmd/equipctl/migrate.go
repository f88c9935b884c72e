package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Softbalance/equipment/internal/database"
)

func newMigrateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the execution history schema",
	}

	open := func() (*database.Migrator, func(), error) {
		if !g.cfg.Database.Enabled {
			return nil, nil, errors.New("database is disabled in config")
		}
		db, err := database.NewConnection(&g.cfg.Database, g.logger)
		if err != nil {
			return nil, nil, err
		}
		return database.NewMigrator(db, g.logger), func() { db.Close() }, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := open()
			if err != nil {
				return err
			}
			defer closeDB()
			return m.Up()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := open()
			if err != nil {
				return err
			}
			defer closeDB()
			return m.Down()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeDB, err := open()
			if err != nil {
				return err
			}
			defer closeDB()
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d dirty=%t\n", version, dirty)
			return nil
		},
	})
	return cmd
}
