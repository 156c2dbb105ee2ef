// File: cmd/report.go
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
	"github.com/xkilldash9x/boxflow/internal/report"
)

// newSnapshotCmd creates the `snapshot` command, which stores a laid-out
// scene as a CBOR snapshot.
func newSnapshotCmd() *cobra.Command {
	var outputPath string

	snapshotCmd := &cobra.Command{
		Use:   "snapshot <scene.yaml>",
		Short: "Lay out a scene and write its geometry as a binary snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runSnapshot(observability.GetLogger(), cfg, args[0], outputPath, cmd.OutOrStdout())
		},
	}
	snapshotCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Snapshot file path (required)")
	_ = snapshotCmd.MarkFlagRequired("output")
	return snapshotCmd
}

// runSnapshot contains the core, testable logic of the snapshot command.
func runSnapshot(logger *zap.Logger, cfg config.Interface, scenePath, outputPath string, w io.Writer) error {
	sc, vp, err := loadScene(logger, cfg.Layout(), scenePath)
	if err != nil {
		return err
	}
	if _, err := sc.Arena.ComputeLayoutInViewport(sc.Root, vp); err != nil {
		return fmt.Errorf("layout failed: %w", err)
	}
	tree, err := report.Collect(sc.Arena, sc.Root, sc.Names)
	if err != nil {
		return err
	}
	data, err := report.EncodeSnapshot(report.Snapshot{Arena: sc.Arena.ID().String(), Root: tree})
	if err != nil {
		return err
	}

	path, err := homedir.Expand(outputPath)
	if err != nil {
		return fmt.Errorf("failed to expand output path: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	logger.Info("Snapshot written", zap.String("path", path), zap.Int("bytes", len(data)))

	digest, err := report.Digest(tree)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %s\n", digest, path)
	return err
}

// newInspectCmd creates the `inspect` command, which prints a snapshot.
func newInspectCmd() *cobra.Command {
	var format string

	inspectCmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Print the geometry stored in a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := getConfigFromContext(cmd.Context()); err != nil {
				return err
			}
			return runInspect(args[0], format, cmd.OutOrStdout())
		},
	}
	inspectCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: json or text")
	return inspectCmd
}

// runInspect decodes a snapshot file and renders its tree.
func runInspect(snapshotPath, format string, w io.Writer) error {
	path, err := homedir.Expand(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to expand snapshot path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := report.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	digest, err := report.Digest(snap.Root)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return report.WriteFilesJSON(w, []report.File{{Path: path, Digest: digest, Layout: snap.Root}})
	case "text":
		if _, err := fmt.Fprintf(w, "arena %s\n", snap.Arena); err != nil {
			return err
		}
		return report.WriteFilesText(w, []report.File{{Path: path, Digest: digest, Layout: snap.Root}})
	}
	return fmt.Errorf("unsupported format %q", format)
}
