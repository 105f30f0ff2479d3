package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"omr-scale/internal/binarize"
	"omr-scale/internal/book"
	"omr-scale/internal/picture"
	"omr-scale/internal/scaler"
)

type scaleOptions struct {
	interline   int
	beam        int
	filter      string
	threshold   int
	interactive bool
	histograms  bool
	binaryDir   string
	params      paramFlags
}

func newScaleCmd(root *rootOptions) *cobra.Command {
	opts := &scaleOptions{}

	cmd := &cobra.Command{
		Use:   "scale <image>...",
		Short: "Measure the scale of sheet images",
		Long: `Measure the scale of each sheet image (TIFF, PNG or JPEG).

Examples:
  omrscale scale page1.tif page2.tif
  omrscale scale --interline 20 --histograms page.png
  omrscale scale --filter otsu -o json page.jpg
  omrscale scale --min-interline 6 --binary-dir bin small.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, root, args)
		},
	}

	cmd.Flags().IntVar(&opts.interline, "interline", 0, "known interline in pixels, skips its detection")
	cmd.Flags().IntVar(&opts.beam, "beam", 0, "known beam thickness in pixels")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "binarization filter: global or otsu (overrides config)")
	cmd.Flags().IntVar(&opts.threshold, "threshold", 0, "global filter threshold (overrides config)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "ask before removing doubtful sheets")
	cmd.Flags().BoolVar(&opts.histograms, "histograms", false, "include run histograms in the report")
	cmd.Flags().StringVar(&opts.binaryDir, "binary-dir", "", "write the binarized images as PNG into this directory")
	opts.params.register(cmd.Flags())
	return cmd
}

func (o *scaleOptions) run(cmd *cobra.Command, root *rootOptions, args []string) error {
	cfg := root.cfg
	if o.filter != "" {
		cfg.Binarization.Filter = o.filter
	}
	if o.threshold != 0 {
		cfg.Binarization.Threshold = o.threshold
	}
	filter, err := cfg.Filter()
	if err != nil {
		return err
	}
	params, err := o.params.apply(cmd.Flags(), cfg.Scale)
	if err != nil {
		return err
	}
	if o.binaryDir != "" {
		if err := os.MkdirAll(o.binaryDir, 0o755); err != nil {
			return fmt.Errorf("failed to create binary directory: %w", err)
		}
	}

	decider := newDecider(cmd, o.interactive)
	overrides := scaler.Overrides{Interline: o.interline, BeamThickness: o.beam}

	var reports []sheetReport
	failed := 0
	for i, path := range args {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		sheet := &book.Sheet{Number: i + 1, ImagePath: path, Specified: overrides}
		sheet.SetFilter(filter)

		builder := scaler.NewBuilder(params, decider).WithLogger(slog.Default().With("image", path))
		_, err := sheet.RetrieveScale(builder, decider)

		report := newSheetReport(sheet, err)
		report.Sheet = 0
		if o.histograms {
			report.Histograms = newHistograms(builder.Histograms())
		}
		if report.Error != "" {
			failed++
		} else if o.binaryDir != "" {
			if err := writeBinary(sheet, o.binaryDir); err != nil {
				return err
			}
		}
		reports = append(reports, report)
	}

	if err := writeOutput(cmd.OutOrStdout(), root.outputFormat, reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be processed", failed, len(args))
	}
	return nil
}

// writeBinary saves the binary image of sheet as <dir>/<image base>.png.
func writeBinary(sheet *book.Sheet, dir string) error {
	pic := sheet.Picture()
	if pic == nil {
		return nil
	}
	img, err := pic.Source(picture.SourceBinary)
	if err != nil {
		return fmt.Errorf("%s: %w", sheet.ImagePath, err)
	}

	base := filepath.Base(sheet.ImagePath)
	out := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create binary image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to write binary image: %w", err)
	}
	return f.Close()
}

// newDecider returns the removal policy of the command.
func newDecider(cmd *cobra.Command, interactive bool) scaler.Decider {
	if interactive {
		return scaler.NewPromptDecider(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return scaler.AutoDecider{}
}

// bookFilter returns the filter recorded in the book settings.
func bookFilter(b *book.File) (binarize.Filter, error) {
	kind, err := binarize.ParseKind(b.Settings.Filter)
	if err != nil {
		return nil, err
	}
	return binarize.New(kind, b.Settings.Threshold)
}
