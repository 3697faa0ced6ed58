package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abby263/grocery-tracking-agent/internal/crew"
	"github.com/Abby263/grocery-tracking-agent/internal/llm"
	"github.com/Abby263/grocery-tracking-agent/internal/scanning"
)

// IDGenerator generates unique IDs for pipeline runs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// RunOptions carries the per-run inputs
type RunOptions struct {
	// ReceiptImagePath points at a receipt image or PDF to scan. Empty
	// means read the markdown file from the data directory instead.
	ReceiptImagePath string
	// Consumption is the user's description of items consumed since the
	// receipt; empty means nothing was consumed.
	Consumption string
}

// RunResult is everything a completed run produced
type RunResult struct {
	Record    *RunRecord
	Inventory *Inventory
	Recipes   *RecipeRecommendations
	Report    *ExpenseReport
}

// Service runs the grocery pipeline end to end
type Service struct {
	provider    llm.Provider
	scanner     scanning.Scanner
	sink        Sink
	ledger      Ledger
	shelfLife   crew.Tool
	recipes     crew.Tool
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with default ID generator and time source
func NewService(provider llm.Provider, scanner scanning.Scanner, sink Sink, ledger Ledger, shelfLife, recipes crew.Tool) *Service {
	return NewServiceWithDeps(provider, scanner, sink, ledger, shelfLife, recipes, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(provider llm.Provider, scanner scanning.Scanner, sink Sink, ledger Ledger, shelfLife, recipes crew.Tool, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		provider:    provider,
		scanner:     scanner,
		sink:        sink,
		ledger:      ledger,
		shelfLife:   shelfLife,
		recipes:     recipes,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Run executes one full pipeline pass: ingest the receipt, run the five
// stages, record the run, and append to the expense history. The first
// stage failure aborts the run; only receipt ingestion and retrieval
// degrade gracefully.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	started := s.timeSource.Now()
	runID := s.idGenerator.Generate()

	history, err := LoadExpenseHistory(s.sink)
	if err != nil {
		return nil, fmt.Errorf("loading expense history: %w", err)
	}

	receiptMarkdown, source := s.ingestReceipt(ctx, opts)
	if strings.TrimSpace(receiptMarkdown) == "" {
		slog.Warn("Receipt is empty, the interpreter will receive an empty document", "source", source)
	}

	inputs := StageInputs{
		ReceiptMarkdown: receiptMarkdown,
		Today:           started.Format("2006-01-02"),
		Consumption:     opts.Consumption,
		HistoryContext:  history.PromptSummary(5),
	}

	outputs, err := crew.New(s.provider, s.sink, BuildTasks(inputs, s.shelfLife, s.recipes)).Kickoff(ctx)
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}

	inventory, err := ParseInventory(outputs[TaskTrackInventory].JSON)
	if err != nil {
		return nil, fmt.Errorf("reading tracked inventory: %w", err)
	}
	recipes, err := ParseRecipes(outputs[TaskRecommendRecipes].JSON)
	if err != nil {
		return nil, fmt.Errorf("reading recipe recommendations: %w", err)
	}
	report, err := ParseExpenseReport(outputs[TaskAnalyzeExpenses].JSON)
	if err != nil {
		return nil, fmt.Errorf("reading expense report: %w", err)
	}

	finished := s.timeSource.Now()
	record := &RunRecord{
		ID:            runID,
		StartedAt:     started,
		FinishedAt:    finished,
		ReceiptSource: source,
		ItemCount:     len(inventory.Items),
		RecipeCount:   len(recipes.Recipes),
		TotalCents:    dollarsToCents(report.ExpenseSummary.TotalAmount),
		Artifacts:     artifactNames(outputs),
	}
	if err := s.ledger.SaveRun(record); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	snapshot := &InventorySnapshot{RunID: runID, TakenAt: finished, Items: inventory.Items}
	if err := s.ledger.SaveInventory(snapshot); err != nil {
		return nil, fmt.Errorf("recording inventory snapshot: %w", err)
	}

	history.Append(report, runID, finished)
	if err := history.Save(s.sink); err != nil {
		return nil, fmt.Errorf("appending expense history: %w", err)
	}

	slog.Info("Run complete",
		"run", runID,
		"items", record.ItemCount,
		"recipes", record.RecipeCount,
		"total_cents", record.TotalCents,
	)

	return &RunResult{
		Record:    record,
		Inventory: inventory,
		Recipes:   recipes,
		Report:    report,
	}, nil
}

// ingestReceipt returns the receipt markdown and where it came from. A
// scanned image wins; on any image failure the markdown file in the data
// directory is the fallback, created empty when missing.
func (s *Service) ingestReceipt(ctx context.Context, opts RunOptions) (markdown, source string) {
	if opts.ReceiptImagePath != "" {
		data, err := os.ReadFile(opts.ReceiptImagePath)
		if err != nil {
			slog.Error("Failed to read receipt image, falling back to markdown file",
				"path", opts.ReceiptImagePath,
				"error", err,
			)
		} else {
			contentType := scanning.ContentTypeForExt(filepath.Ext(opts.ReceiptImagePath))
			scanned, err := s.scanner.ScanReceipt(ctx, data, contentType)
			if err != nil {
				slog.Error("Failed to scan receipt image, falling back to markdown file",
					"path", opts.ReceiptImagePath,
					"content_type", contentType,
					"file_size", len(data),
					"error", err,
				)
			} else {
				if _, err := s.sink.Save(ReceiptMarkdownFile, []byte(scanned)); err != nil {
					slog.Warn("Failed to save receipt markdown", "error", err)
				} else {
					slog.Info("Receipt scanned", "path", opts.ReceiptImagePath, "file", ReceiptMarkdownFile)
				}
				return scanned, opts.ReceiptImagePath
			}
		}
	}

	data, err := s.sink.Get(ReceiptMarkdownFile)
	if err != nil {
		if _, saveErr := s.sink.Save(ReceiptMarkdownFile, []byte{}); saveErr != nil {
			slog.Warn("Failed to create empty receipt markdown file", "error", saveErr)
		} else {
			slog.Info("Created empty receipt markdown file", "file", ReceiptMarkdownFile)
		}
		return "", ReceiptMarkdownFile
	}
	return string(data), ReceiptMarkdownFile
}

// artifactNames collects the files the stages wrote, in stage order
func artifactNames(outputs map[string]crew.TaskOutput) []string {
	names := make([]string, 0, len(outputs))
	for _, task := range []string{TaskReadReceipt, TaskEstimateExpirations, TaskTrackInventory, TaskRecommendRecipes, TaskAnalyzeExpenses} {
		if out, ok := outputs[task]; ok && out.File != "" {
			names = append(names, out.File)
		}
	}
	return names
}
