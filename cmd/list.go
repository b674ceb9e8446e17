package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storyreel/internal/storage"
	"storyreel/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved artifacts",
	Long:  `List generated stories, affiliate scripts and images in the output directory or GCS bucket.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	artifacts, err := store.List(ctx)
	if err != nil {
		return err
	}

	if len(artifacts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No artifacts found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tUPDATED\tLOCATION")
	for _, a := range artifacts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", a.Name, a.Size, a.Updated.Format("2006-01-02 15:04"), a.Location)
	}
	return w.Flush()
}
