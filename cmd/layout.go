// File: cmd/layout.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/observability"
	"github.com/xkilldash9x/boxflow/internal/report"
	"github.com/xkilldash9x/boxflow/internal/scene"
)

// newLayoutCmd creates and configures the `layout` command.
func newLayoutCmd() *cobra.Command {
	var (
		format      string
		digest      bool
		width       float64
		height      float64
		concurrency int
	)

	layoutCmd := &cobra.Command{
		Use:   "layout [scene.yaml...]",
		Short: "Lay out one or more scene files and print the resulting geometry",
		Long: `Builds each YAML scene into its own arena, computes its layout against the
scene's viewport (or the configured one) and prints the box tree. Files are
processed concurrently; output order follows the argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.SetOutputFormat(format)
			}
			if flags.Changed("digest") {
				cfg.SetOutputDigest(digest)
			}
			if flags.Changed("width") || flags.Changed("height") {
				w, h := cfg.Layout().ViewportWidth, cfg.Layout().ViewportHeight
				if flags.Changed("width") {
					w = width
				}
				if flags.Changed("height") {
					h = height
				}
				cfg.SetViewport(w, h)
			}
			out := cfg.Output()
			if flags.Changed("concurrency") {
				out.Concurrency = concurrency
			}
			if err := out.Validate(); err != nil {
				return fmt.Errorf("invalid output flags: %w", err)
			}

			return runLayout(cmd.Context(), observability.GetLogger(), cfg.Layout(), out, args, cmd.OutOrStdout())
		},
	}

	layoutCmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or text")
	layoutCmd.Flags().BoolVar(&digest, "digest", false, "Print a BLAKE3 digest of each layout tree")
	layoutCmd.Flags().Float64Var(&width, "width", 0, "Viewport width for scenes without one (0 leaves it unreported)")
	layoutCmd.Flags().Float64Var(&height, "height", 0, "Viewport height for scenes without one (0 leaves it unreported)")
	layoutCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Number of scene files laid out in parallel")

	return layoutCmd
}

// runLayout contains the core, testable logic of the layout command.
func runLayout(ctx context.Context, logger *zap.Logger, lc config.LayoutConfig, out config.OutputConfig, paths []string, w io.Writer) error {
	files := make([]report.File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(out.Concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := layoutFile(logger, lc, path, out.Digest)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if out.Format == "text" {
		return report.WriteFilesText(w, files)
	}
	return report.WriteFilesJSON(w, files)
}

// layoutFile loads, builds and lays out one scene in a fresh arena.
func layoutFile(logger *zap.Logger, lc config.LayoutConfig, path string, withDigest bool) (report.File, error) {
	sc, vp, err := loadScene(logger, lc, path)
	if err != nil {
		return report.File{}, err
	}
	if _, err := sc.Arena.ComputeLayoutInViewport(sc.Root, vp); err != nil {
		return report.File{}, fmt.Errorf("layout failed: %w", err)
	}

	tree, err := report.Collect(sc.Arena, sc.Root, sc.Names)
	if err != nil {
		return report.File{}, err
	}
	f := report.File{Path: path, Layout: tree}
	if withDigest {
		if f.Digest, err = report.Digest(tree); err != nil {
			return report.File{}, err
		}
	}

	st := sc.Arena.Stats()
	logger.Debug("Scene laid out.",
		zap.String("file", path),
		zap.Stringer("arena", sc.Arena.ID()),
		zap.Int("nodes", sc.Arena.Len()),
		zap.Int("cache_hits", st.CacheHits),
		zap.Int("cache_misses", st.CacheMisses),
		zap.Int("measurements", st.Measurements),
	)
	return f, nil
}

func loadScene(logger *zap.Logger, lc config.LayoutConfig, path string) (*scene.Scene, layout.Viewport, error) {
	doc, err := scene.Load(path)
	if err != nil {
		return nil, layout.Viewport{}, err
	}
	sc, err := scene.Build(doc, scene.DefaultText, arenaOptions(logger, lc)...)
	if err != nil {
		return nil, layout.Viewport{}, fmt.Errorf("failed to build scene: %w", err)
	}
	return sc, doc.ViewportOr(configuredViewport(lc)), nil
}

// arenaOptions maps the layout config onto arena options.
func arenaOptions(logger *zap.Logger, lc config.LayoutConfig) []layout.Option {
	return []layout.Option{
		layout.WithLogger(logger.Named("layout")),
		layout.WithCacheEntries(lc.CacheEntriesPerNode),
		layout.WithMeasureCacheEntries(lc.MeasureCacheEntries),
		layout.WithLimits(lc.MaxDepth, lc.MaxNodes),
	}
}

// configuredViewport reports only the positive configured dimensions.
func configuredViewport(lc config.LayoutConfig) layout.Viewport {
	return layout.Viewport{
		Width:     lc.ViewportWidth,
		Height:    lc.ViewportHeight,
		HasWidth:  lc.ViewportWidth > 0,
		HasHeight: lc.ViewportHeight > 0,
	}
}
