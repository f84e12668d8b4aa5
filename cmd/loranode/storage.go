package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exepirit/loratext/pkg/loratext/storage"
)

var storagePath string

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print stored log lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(storagePath)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.Logs(logsLimit)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), entry.Line)
		}
		return nil
	},
}

var rosterSet string

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Show or replace the persisted peer roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(storagePath)
		if err != nil {
			return err
		}
		defer db.Close()

		if cmd.Flags().Changed("set") {
			if err := db.SetRoster(storage.SplitRoster(rosterSet)); err != nil {
				return err
			}
		}
		names, err := db.Roster(nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{logsCmd, rosterCmd} {
		cmd.Flags().StringVarP(&storagePath, "storage", "s", "loranode.db", "Storage database path")
	}
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "l", 50, "Number of most recent lines, 0 for all")
	rosterCmd.Flags().StringVar(&rosterSet, "set", "", "Comma-separated roster to store")
}
