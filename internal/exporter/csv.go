package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

// RecordSink appends records to a result file in schema order. The header is
// written once, when the file is new or empty, and every row is fsynced before
// Write returns. Earlier rows are never rewritten.
type RecordSink struct {
	path   string
	file   *os.File
	logger *slog.Logger
	mu     sync.Mutex
	rows   int
}

// OpenRecordSink opens or creates the result file at path
func OpenRecordSink(path string, logger *slog.Logger) (*RecordSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewWorkListIOError(path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperrors.NewWorkListIOError(path, err)
	}

	sink := &RecordSink{path: path, file: file, logger: logger}
	if err := sink.prepareHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return sink, nil
}

func (s *RecordSink) prepareHeader() error {
	size, err := s.dropPartialRow()
	if err != nil {
		return err
	}

	if size == 0 {
		s.logger.Info("Creating result file", slog.String("path", s.path))
		return s.writeLine(domain.Header())
	}

	header, err := csv.NewReader(bufio.NewReader(io.NewSectionReader(s.file, 0, size))).Read()
	if err != nil {
		return apperrors.NewWorkListIOError(s.path, fmt.Errorf("reading header: %w", err))
	}
	if !slices.Equal(header, domain.Header()) {
		return apperrors.NewWorkListIOError(s.path, fmt.Errorf("result file header does not match the output schema"))
	}
	return nil
}

// dropPartialRow truncates a last row left without its newline by an
// interrupted write and returns the remaining file size. The checkpoint never
// covers such a row, so its item is scraped again.
func (s *RecordSink) dropPartialRow() (int64, error) {
	info, err := s.file.Stat()
	if err != nil {
		return 0, apperrors.NewWorkListIOError(s.path, err)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := s.file.ReadAt(last, size-1); err != nil {
		return 0, apperrors.NewWorkListIOError(s.path, err)
	}
	if last[0] == '\n' {
		return size, nil
	}

	// quoted fields may hold newlines, so row boundaries come from the csv reader
	r := csv.NewReader(bufio.NewReader(io.NewSectionReader(s.file, 0, size)))
	r.FieldsPerRecord = -1
	var complete int64
	for {
		if _, err := r.Read(); err != nil || r.InputOffset() >= size {
			break
		}
		complete = r.InputOffset()
	}

	if err := s.file.Truncate(complete); err != nil {
		return 0, apperrors.NewWorkListIOError(s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return 0, apperrors.NewWorkListIOError(s.path, err)
	}
	s.logger.Warn("Dropped partial row from result file",
		slog.String("path", s.path),
		slog.Int64("bytes", size-complete))
	return complete, nil
}

// Path returns the result file location
func (s *RecordSink) Path() string {
	return s.path
}

// Write appends one record
func (s *RecordSink) Write(rec *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return apperrors.NewWorkListIOError(s.path, os.ErrClosed)
	}
	if err := s.writeLine(rec.Row()); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows returns the number of records written through this sink
func (s *RecordSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close closes the result file
func (s *RecordSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *RecordSink) writeLine(fields []string) error {
	if _, err := io.WriteString(s.file, FormatRow(fields)); err != nil {
		return apperrors.NewWorkListIOError(s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return apperrors.NewWorkListIOError(s.path, err)
	}
	return nil
}

// FormatRow renders one comma-delimited line with every field quoted.
// encoding/csv only quotes fields that need it.
func FormatRow(fields []string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return b.String()
}

// ReadRows reads a result file back, header included
func ReadRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewWorkListIOError(path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, apperrors.NewWorkListIOError(path, err)
	}
	return rows, nil
}
