// Package operations runs work lists through the record extractor.
//
// A work list is a delimited file of stock identifiers. For each file the
// Controller walks the data rows strictly in order, extracts one record per
// row, appends it to the result file and then atomically advances the
// checkpoint. The checkpoint holds the next row to process, or -1 once the
// file is complete, so an interrupted run resumes where it stopped and a
// completed file is never scraped twice.
//
// Core Components:
//
// Controller: runs one work list through the NOT_STARTED, IN_PROGRESS and
// COMPLETED states.
//
// CheckpointStore: persists the JobState of one work list and refuses to move
// it backwards.
//
// Runner: discovers the work lists in the data directory and runs each one.
// A failing file is logged and skipped.
//
// BatchTracer: OpenTelemetry spans and metrics for work lists and items.
//
// Example usage:
//
//	controller := operations.NewController(extractor, operations.CSVSinks(logger),
//	    operations.WithControllerLogger(logger))
//	runner := operations.NewRunner(controller, paths, cfg.WorkList.Patterns)
//	summaries, err := runner.RunAll(ctx)
package operations
