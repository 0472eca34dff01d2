// Package excel imports card decks in bulk from Excel or CSV files.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/flashdeck/internal/database"
	"github.com/example/flashdeck/internal/srs"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	FrontColumn string // Column with the card front
	BackColumn  string // Column with the card back
	SheetName   string // Name of the sheet to import
	StartRow    int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn: "A",
		BackColumn:  "B",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportCards imports cards from an Excel or CSV file. Imported cards start
// in the new state and are immediately due. Rows whose front already exists
// in the collection are skipped.
func ImportCards(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel imports cards from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	imp, err := newImporter()
	if err != nil {
		return nil, err
	}

	frontIdx := columnToIndex(config.FrontColumn)
	backIdx := columnToIndex(config.BackColumn)

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		var front, back string
		if frontIdx < len(row) {
			front = row[frontIdx]
		}
		if backIdx < len(row) {
			back = row[backIdx]
		}
		imp.add(front, back, i+1)
	}
	return imp.result, nil
}

// importFromCSV imports cards from a CSV file. Column letters map to CSV
// field positions (A=0, B=1, ...).
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	imp, err := newImporter()
	if err != nil {
		return nil, err
	}

	frontIdx := columnToIndex(config.FrontColumn)
	backIdx := columnToIndex(config.BackColumn)

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		var front, back string
		if frontIdx < len(row) {
			front = row[frontIdx]
		}
		if backIdx < len(row) {
			back = row[backIdx]
		}
		imp.add(front, back, rowNum)
	}
	return imp.result, nil
}

// importer accumulates rows into the card repository, deduplicating on the
// card front.
type importer struct {
	repo     *database.CardRepository
	existing map[string]struct{}
	result   *ImportResult
}

func newImporter() (*importer, error) {
	repo := database.NewCardRepository()
	cards, err := repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing cards: %w", err)
	}
	existing := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		existing[strings.ToLower(c.Front)] = struct{}{}
	}
	return &importer{
		repo:     repo,
		existing: existing,
		result:   &ImportResult{Errors: make([]string, 0)},
	}, nil
}

func (imp *importer) add(front, back string, rowNum int) {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if front == "" && back == "" {
		return // blank row
	}
	imp.result.TotalProcessed++

	if front == "" || back == "" {
		imp.result.Errors = append(imp.result.Errors,
			fmt.Sprintf("Row %d: needs both front and back", rowNum))
		return
	}
	if _, ok := imp.existing[strings.ToLower(front)]; ok {
		imp.result.Skipped++
		return
	}

	card := srs.NewCard(front, back, time.Now())
	if err := imp.repo.Create(&card); err != nil {
		imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	imp.existing[strings.ToLower(front)] = struct{}{}
	imp.result.Created++
}

// columnToIndex converts a spreadsheet column letter ("A", "B", ... "AA")
// to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	idx := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return 0
		}
		idx = idx*26 + int(r-'A') + 1
	}
	if idx == 0 {
		return 0
	}
	return idx - 1
}
