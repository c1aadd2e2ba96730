package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bidwire/gate/internal/config"
	"github.com/bidwire/gate/internal/identity"
	"github.com/bidwire/gate/internal/store/postgres"
	"github.com/bidwire/gate/internal/ui"
)

var directorySeedFile string

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Administer the participant directory",
}

var directorySeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert participants from a TOML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		file := directorySeedFile
		if file == "" {
			file = cfg.DirectoryFile
		}
		if file == "" {
			return fmt.Errorf("no seed file: pass --file or set GATE_DIRECTORY_FILE")
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := identity.SeedStore(context.Background(), store, file)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d participants from %s\n", n, file)
		return nil
	},
}

var directoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered participants",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		participants, err := store.ListParticipants(context.Background())
		if err != nil {
			return err
		}
		if len(participants) == 0 {
			fmt.Println(ui.RenderMuted("no participants registered"))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AGENT ID\tROLE\tACCOUNT\tENDPOINT")
		for _, p := range participants {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.AgentID, p.Role, p.AccountID, p.Endpoint)
		}
		return w.Flush()
	},
}

func init() {
	directorySeedCmd.Flags().StringVar(&directorySeedFile, "file", "", "TOML seed file (defaults to GATE_DIRECTORY_FILE)")
	directoryCmd.AddCommand(directorySeedCmd)
	directoryCmd.AddCommand(directoryListCmd)
}
