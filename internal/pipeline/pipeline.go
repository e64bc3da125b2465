package pipeline

import (
	"context"
	"fmt"
	"time"

	"liquigen/domain/form"
	"liquigen/internal/dedupe"
	"liquigen/internal/errors"
	"liquigen/internal/grouping"
	"liquigen/internal/logging"
	"liquigen/internal/normalize"
	"liquigen/ports"

	"github.com/google/uuid"
)

// Config holds batch-level policies
type Config struct {
	DuplicatePolicy dedupe.Policy
}

// Pipeline compiles one tabular source into changelog documents. Batch state
// lives inside Run, so one Pipeline may serve concurrent batches.
type Pipeline struct {
	source     ports.SheetSourcePort
	normalizer *normalize.Normalizer
	writer     ports.DocumentWriterPort
	publisher  ports.PublisherPort
	config     Config
}

// New wires a pipeline. publisher may be nil.
func New(source ports.SheetSourcePort, normalizer *normalize.Normalizer, writer ports.DocumentWriterPort, publisher ports.PublisherPort, config Config) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("source dependency is required")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer dependency is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer dependency is required")
	}
	return &Pipeline{
		source:     source,
		normalizer: normalizer,
		writer:     writer,
		publisher:  publisher,
		config:     config,
	}, nil
}

// Run reads path and processes every row. Row problems are collected in the
// result. A structural, ledger or write failure stops the batch and is
// returned together with whatever the batch produced up to that point.
func (p *Pipeline) Run(ctx context.Context, path string) (*form.BatchResult, error) {
	result := &form.BatchResult{
		BatchID: uuid.New().String(),
		Source:  path,
	}
	ctx = logging.WithBatchID(ctx, result.BatchID)
	logger := logging.FromContext(ctx)
	started := time.Now()

	wb, err := p.source.ReadWorkbook(ctx, path)
	if err != nil {
		logger.Error().Err(err).Str("source", path).Msg("cannot read source")
		return result, err
	}
	logger.Info().Str("source", path).Int("sheets", len(wb.Sheets)).Int("rows", wb.RowCount()).Msg("batch started")

	if err := p.process(ctx, wb, result); err != nil {
		logger.Error().Err(err).Msg("batch aborted")
		return result, err
	}

	if p.publisher != nil && len(result.Documents) > 0 {
		if err := p.publisher.Publish(ctx, result.Paths()); err != nil {
			logger.Warn().Err(err).Msg("publishing generated changelogs failed")
		}
	}

	logger.Info().
		Int("accepted", result.Accepted()).
		Int("failed", result.Failed()).
		Int("skipped", result.SkippedCount()).
		Int("dropped", len(result.Dropped)).
		Int("documents", len(result.Documents)).
		Dur("elapsed", time.Since(started)).
		Msg("batch finished")

	return result, nil
}

func (p *Pipeline) process(ctx context.Context, wb *form.Workbook, result *form.BatchResult) error {
	guard := dedupe.NewGuard(p.config.DuplicatePolicy)
	engine := grouping.NewEngine()
	logging.FromContext(ctx).Debug().Str("duplicate_policy", string(guard.Policy())).Msg("processing rows")

	var accepted []form.Record
	for _, sheet := range wb.Sheets {
		hint, _ := normalize.SheetOperation(sheet.Name)

		for _, row := range sheet.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			out, err := p.normalizer.Normalize(ctx, row, hint)
			if err != nil {
				return err
			}

			switch {
			case out.Failure != nil:
				result.Errors = append(result.Errors, *out.Failure)
			case out.Skipped != nil:
				result.Skipped = append(result.Skipped, *out.Skipped)
			case out.Record != nil:
				verdict := guard.Check(out.Record)
				result.Errors = append(result.Errors, verdict.Failures...)
				if verdict.Record != nil {
					accepted = append(accepted, verdict.Record)
					engine.Add(verdict.Record)
				}
			}
		}
	}

	plan := engine.Build()
	result.Errors = append(result.Errors, plan.Failures...)
	result.Dropped = append(result.Dropped, plan.Dropped...)
	result.Records = withoutRows(accepted, plan.Failures, plan.Dropped)

	for _, group := range plan.Groups {
		doc, err := p.writer.Generate(ctx, group)
		if err != nil {
			return errors.Wrapf(err, "changelog for %s (%s) failed", group.OutputFileKey, group.Operation)
		}
		result.Documents = append(result.Documents, doc)
	}

	return nil
}

type rowRef struct {
	sheet string
	row   int
}

// withoutRows removes records the grouping step rejected or dropped. Dropped
// records never reach the ledger, so they are not reported as accepted.
func withoutRows(records []form.Record, failures []form.RowFailure, dropped []form.DroppedRecord) []form.Record {
	if len(failures) == 0 && len(dropped) == 0 {
		return records
	}
	removed := make(map[rowRef]bool, len(failures)+len(dropped))
	for _, f := range failures {
		removed[rowRef{sheet: f.Sheet, row: f.RowNumber}] = true
	}
	for _, d := range dropped {
		removed[rowRef{sheet: d.Sheet, row: d.RowNumber}] = true
	}

	kept := make([]form.Record, 0, len(records))
	for _, r := range records {
		meta := r.RecordMeta()
		if removed[rowRef{sheet: meta.Sheet, row: meta.RowNumber}] {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
