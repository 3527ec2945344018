package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/infrastructure/storage"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete generated documents older than the retention window",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().Duration("retention", 0, "Override ARTIFACT_RETENTION_DAYS (e.g. 48h)")
	sweepCmd.Flags().Bool("dry-run", false, "List what would be removed without deleting")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	retention, _ := cmd.Flags().GetDuration("retention")
	if retention <= 0 {
		retention = cfg.ArtifactRetention()
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	store, err := storage.NewLocalArtifactStore(cfg, log)
	if err != nil {
		return err
	}
	artifacts := artifact.NewService(store, log)
	out := cmd.OutOrStdout()

	if dryRun {
		infos, err := artifacts.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, info := range expired(infos, time.Now().Add(-retention)) {
			fmt.Fprintf(out, "%s\t%s\n", info.Name, info.ModifiedAt.Format(time.RFC3339))
		}
		return nil
	}

	removed, err := artifacts.Sweep(cmd.Context(), retention)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "removed %d artifact(s) older than %s\n", removed, retention)
	return nil
}

func expired(infos []artifact.Info, cutoff time.Time) []artifact.Info {
	out := make([]artifact.Info, 0, len(infos))
	for _, info := range infos {
		if info.ModifiedAt.Before(cutoff) {
			out = append(out, info)
		}
	}
	return out
}
