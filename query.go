package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexandro/hslindex/hsl"
	"github.com/lexandro/hslindex/index"
	"github.com/lexandro/hslindex/service"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   `query --index PATH [--max N] "HSL"`,
		Short: "Run one HSL query against a local index",
		Example: `  hslindex query --index ~/.hslindex/media 'size > 1GB ORDER BY size DESC'
  hslindex query --index /srv/idx --max 50 'name = invoice AND created >= 2024-01-01'`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}
	cmd.Flags().String("index", "", "Path of the index to search")
	cmd.Flags().Int("max", service.DefaultMaxResults, "Maximum number of paths to print")
	cmd.MarkFlagRequired("index")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	indexPath, _ := cmd.Flags().GetString("index")
	limit, _ := cmd.Flags().GetInt("max")
	if limit <= 0 {
		limit = service.DefaultMaxResults
	}

	q, err := hsl.Parse(args[0])
	if err != nil {
		return err
	}

	engine, err := index.OpenReadOnly(indexPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Query(cmd.Context(), q, limit)
	if err != nil {
		return fmt.Errorf("searching %s: %w", indexPath, err)
	}

	out := cmd.OutOrStdout()
	for _, path := range result.Paths {
		fmt.Fprintln(out, path)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d matching files\n", len(result.Paths), result.Total)
	return nil
}
