package operations

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "finscrape/internal/errors"
	"finscrape/pkg/contracts/domain"
)

// WorkList is the parsed content of one work-list file
type WorkList struct {
	Name  string
	Path  string
	Items []domain.WorkItem
}

// Len returns the number of data rows
func (w *WorkList) Len() int {
	return len(w.Items)
}

// ReadWorkList reads a delimited work list. The first row is a header and is
// skipped. Each remaining row becomes a WorkItem at its 1-based position, even
// when the identifier column is blank.
func ReadWorkList(path string, delimiter rune) (*WorkList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewWorkListIOError(path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	wl := &WorkList{Name: filepath.Base(path), Path: path}
	header := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewWorkListIOError(path, err)
		}
		if header {
			header = false
			continue
		}

		item := domain.WorkItem{Index: len(wl.Items) + 1}
		if len(row) > 0 {
			item.Identifier = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			item.Registry = strings.ToUpper(strings.TrimSpace(row[1]))
		}
		wl.Items = append(wl.Items, item)
	}
	return wl, nil
}
