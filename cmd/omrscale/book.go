package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"omr-scale/internal/book"
	"omr-scale/internal/picture"
)

func newBookCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book management commands",
		Long: `A book file (.omrbook) lists the sheet images of one score and keeps
their scales between runs.

Examples:
  omrscale book create score.omrbook scans/*.tif
  omrscale book process --concurrency 4 score.omrbook
  omrscale book show score.omrbook`,
	}
	cmd.AddCommand(
		newBookCreateCmd(root),
		newBookProcessCmd(root),
		newBookShowCmd(root),
	)
	return cmd
}

func newBookCreateCmd(root *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <book> <image>...",
		Short: "Create a book from sheet images",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookPath := args[0]
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(bookPath), filepath.Ext(bookPath))
			}

			b := book.New(name)
			b.Settings.Filter = root.cfg.Binarization.Filter
			b.Settings.Threshold = root.cfg.Binarization.Threshold

			for _, image := range args[1:] {
				if !picture.IsSupportedFormat(image) {
					return fmt.Errorf("unsupported image format: %s", image)
				}
				abs, err := filepath.Abs(image)
				if err != nil {
					return err
				}
				b.AddSheet(bookPath, abs)
			}

			if err := b.Save(bookPath); err != nil {
				return fmt.Errorf("failed to save book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created book %s with %d sheets\n", bookPath, len(b.Sheets))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name (default: book file name)")
	return cmd
}

func newBookProcessCmd(root *rootOptions) *cobra.Command {
	var (
		concurrency int
		interactive bool
		reset       bool
		pf          paramFlags
	)

	cmd := &cobra.Command{
		Use:   "process <book>",
		Short: "Retrieve the scale of every valid sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := pf.apply(cmd.Flags(), root.cfg.Scale)
			if err != nil {
				return err
			}
			bookPath := args[0]
			b, err := book.Load(bookPath)
			if err != nil {
				return err
			}

			if reset {
				for _, s := range b.Sheets {
					s.Reset()
				}
			}

			filter, err := bookFilter(b)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = root.cfg.Concurrency
			}

			summary, procErr := b.RetrieveScales(cmd.Context(), book.ProcessOptions{
				Params:      params,
				Decider:     newDecider(cmd, interactive),
				Filter:      filter,
				Concurrency: concurrency,
				Logger:      slog.Default().With("book", b.Name),
			})

			// Completed sheets are kept even when processing stopped early.
			if err := b.Save(bookPath); err != nil {
				return fmt.Errorf("failed to save book: %w", err)
			}
			if procErr != nil {
				return procErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scaled %d, rejected %d, already known %d, skipped %d\n",
				summary.Scaled, summary.Rejected, summary.Known, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "sheets processed in parallel (default from config)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask before removing doubtful sheets")
	cmd.Flags().BoolVar(&reset, "reset", false, "forget known scales and rejections first")
	pf.register(cmd.Flags())
	return cmd
}

func newBookShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <book>",
		Short: "Print the sheets of a book with their scales",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := book.Load(args[0])
			if err != nil {
				return err
			}

			reports := make([]sheetReport, 0, len(b.Sheets))
			for _, s := range b.Sheets {
				reports = append(reports, newSheetReport(s, nil))
			}
			return writeOutput(cmd.OutOrStdout(), root.outputFormat, struct {
				ID     string        `json:"id" yaml:"id"`
				Name   string        `json:"name" yaml:"name"`
				Sheets []sheetReport `json:"sheets" yaml:"sheets"`
			}{b.ID, b.Name, reports})
		},
	}
}
