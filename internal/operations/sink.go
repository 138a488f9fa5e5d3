package operations

import (
	"log/slog"

	"finscrape/internal/exporter"
)

// CSVSinks opens result files as append-only quoted CSV
func CSVSinks(logger *slog.Logger) SinkFactory {
	return func(path string) (RecordSink, error) {
		sink, err := exporter.OpenRecordSink(path, logger)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}
