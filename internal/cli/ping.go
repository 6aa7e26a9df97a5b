package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/argo-ocean/oceanq/internal/tui"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := queryServerInfo(cmd.Context(), s.conn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.SuccessStyle.Render(tui.SymbolCheck+" Connected"))
	fmt.Fprintf(out, "  PostgreSQL %s\n", info.Version)
	fmt.Fprintf(out, "  database %s as %s\n", info.Database, info.User)
	return nil
}
