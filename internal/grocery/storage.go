package grocery

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact names inside the data directory. They match the files the
// pipeline has always produced, so existing data directories keep working.
const (
	ReceiptMarkdownFile = "grocery_receipt.md"
	TrackerFile         = "grocery_tracker.json"
	RecipeFile          = "recipe_recommendation.json"
	ExpenseReportFile   = "expense_report.json"
	ExpenseHistoryFile  = "expense_history.json"
)

// Sink defines the interface for data-directory file operations
type Sink interface {
	// Save writes a file and returns its name
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by name
	Get(filename string) ([]byte, error)

	// Delete removes a file
	Delete(filename string) error
}

// DataDir implements the Sink interface on a local directory
type DataDir struct {
	basePath string
}

// NewDataDir creates the directory if needed and returns a DataDir over it
func NewDataDir(basePath string) (*DataDir, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &DataDir{
		basePath: basePath,
	}, nil
}

// Save writes a file into the data directory
func (d *DataDir) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(d.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from the data directory
func (d *DataDir) Get(filename string) ([]byte, error) {
	path := filepath.Join(d.basePath, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from the data directory
func (d *DataDir) Delete(filename string) error {
	path := filepath.Join(d.basePath, filename)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
