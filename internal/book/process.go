package book

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"omr-scale/internal/binarize"
	"omr-scale/internal/scaler"
)

// ProcessOptions configures scale retrieval over a book.
type ProcessOptions struct {
	Params      scaler.Params
	Decider     scaler.Decider
	Filter      binarize.Filter
	Concurrency int // Sheets processed in parallel, <= 0 means one
	Logger      *slog.Logger
}

// Summary counts the outcome of RetrieveScales.
type Summary struct {
	Scaled   int // Scales computed by this call
	Known    int // Scales already present
	Rejected int // Sheets marked invalid by this call
	Skipped  int // Sheets already invalid
}

// RetrieveScales computes the scale of every valid sheet lacking one.
// Sheets are independent and processed with bounded parallelism. Rejected
// sheets are marked invalid and do not fail the call; other errors do.
func (b *File) RetrieveScales(ctx context.Context, opts ProcessOptions) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	decider := opts.Decider
	if decider == nil {
		decider = scaler.AutoDecider{}
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var scaled, known, rejected, skipped atomic.Int32

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, s := range b.Sheets {
		if s.Invalid {
			skipped.Add(1)
			continue
		}
		if s.Measured != nil {
			known.Add(1)
			continue
		}
		if opts.Filter != nil {
			s.SetFilter(opts.Filter)
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			sheetLogger := logger.With("sheet", s.Number)
			builder := scaler.NewBuilder(opts.Params, decider).WithLogger(sheetLogger)

			if _, err := s.RetrieveScale(builder, decider); err != nil {
				var rej *scaler.RejectedError
				if errors.As(err, &rej) {
					sheetLogger.Warn("sheet rejected", "reason", rej.Reason.String(), "message", rej.Message)
					rejected.Add(1)
					return nil
				}
				return err
			}
			scaled.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return Summary{
		Scaled:   int(scaled.Load()),
		Known:    int(known.Load()),
		Rejected: int(rejected.Load()),
		Skipped:  int(skipped.Load()),
	}, err
}
