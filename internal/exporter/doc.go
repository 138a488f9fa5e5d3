// Package exporter writes scraped records to disk.
//
// RecordSink is the append-only result file: a comma-delimited file with every
// field quoted, one header row in schema order, MISSING rendered as N/A and
// each row fsynced before the checkpoint moves past it.
//
// ExportWorkbook turns a completed result file into an xlsx workbook.
//
// Example usage:
//
//	sink, err := exporter.OpenRecordSink("results/result_hello.csv", logger)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//	err = sink.Write(record)
package exporter
