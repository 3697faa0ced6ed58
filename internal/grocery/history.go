package grocery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Abby263/grocery-tracking-agent/internal/llm"
)

// HistoryExpense is one run's receipt summary inside the history file.
// Amounts are integer cents.
type HistoryExpense struct {
	Date       string         `json:"date"` // YYYY-MM-DD
	TotalCents int            `json:"total_cents"`
	Categories map[string]int `json:"categories"`
	RunID      string         `json:"run_id,omitempty"`
}

// MonthlySummary accumulates a calendar month of spending
type MonthlySummary struct {
	TotalCents int `json:"total_cents"`
	RunCount   int `json:"run_count"`
}

// ExpenseHistory is the only document that survives across runs. The file
// always carries the three top-level keys, even when empty.
type ExpenseHistory struct {
	Expenses         []HistoryExpense          `json:"expenses"`
	Categories       map[string]int            `json:"categories"`
	MonthlySummaries map[string]MonthlySummary `json:"monthly_summaries"`
}

// NewExpenseHistory returns the default empty structure:
// {"expenses": [], "categories": {}, "monthly_summaries": {}}
func NewExpenseHistory() *ExpenseHistory {
	return &ExpenseHistory{
		Expenses:         []HistoryExpense{},
		Categories:       map[string]int{},
		MonthlySummaries: map[string]MonthlySummary{},
	}
}

// normalize repairs nil fields after decoding a hand-edited file
func (h *ExpenseHistory) normalize() {
	if h.Expenses == nil {
		h.Expenses = []HistoryExpense{}
	}
	if h.Categories == nil {
		h.Categories = map[string]int{}
	}
	if h.MonthlySummaries == nil {
		h.MonthlySummaries = map[string]MonthlySummary{}
	}
}

// LoadExpenseHistory reads the history from the sink. A missing or empty
// file is created with the default structure; a corrupted file is replaced
// with the default. Neither is fatal.
func LoadExpenseHistory(sink Sink) (*ExpenseHistory, error) {
	data, err := sink.Get(ExpenseHistoryFile)
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		history := NewExpenseHistory()
		if err := history.Save(sink); err != nil {
			return nil, err
		}
		slog.Info("Created new expense history file with default structure")
		return history, nil
	}

	var history ExpenseHistory
	if err := json.Unmarshal(data, &history); err != nil {
		slog.Warn("Expense history file is corrupted, replacing with default structure", "error", err)
		fresh := NewExpenseHistory()
		if err := fresh.Save(sink); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	history.normalize()
	return &history, nil
}

// Save writes the history back through the sink
func (h *ExpenseHistory) Save(sink Sink) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling expense history: %w", err)
	}
	if _, err := sink.Save(ExpenseHistoryFile, data); err != nil {
		return fmt.Errorf("saving expense history: %w", err)
	}
	return nil
}

// Append merges one run's expense report into the history: a new expenses
// entry, per-category totals, and the YYYY-MM monthly bucket. now supplies
// the fallback when the report's date does not parse.
func (h *ExpenseHistory) Append(report *ExpenseReport, runID string, now time.Time) {
	date := llm.NormalizeDate(report.ExpenseSummary.Date, now)
	totalCents := dollarsToCents(report.ExpenseSummary.TotalAmount)

	expense := HistoryExpense{
		Date:       date,
		TotalCents: totalCents,
		Categories: make(map[string]int, len(report.ExpenseSummary.CategoryBreakdown)),
		RunID:      runID,
	}
	for category, dollars := range report.ExpenseSummary.CategoryBreakdown {
		cents := dollarsToCents(dollars)
		expense.Categories[category] = cents
		h.Categories[category] += cents
	}
	h.Expenses = append(h.Expenses, expense)

	month := date[:7]
	summary := h.MonthlySummaries[month]
	summary.TotalCents += totalCents
	summary.RunCount++
	h.MonthlySummaries[month] = summary
}

// PromptSummary renders a compact plain-text view of the history for the
// expense analyst's prompt, so price trends have a baseline. maxExpenses
// bounds how many recent receipts are listed.
func (h *ExpenseHistory) PromptSummary(maxExpenses int) string {
	if len(h.Expenses) == 0 {
		return "No prior expense history."
	}

	var b strings.Builder
	b.WriteString("Prior expense history:\n")

	start := 0
	if len(h.Expenses) > maxExpenses {
		start = len(h.Expenses) - maxExpenses
	}
	for _, expense := range h.Expenses[start:] {
		fmt.Fprintf(&b, "- %s: total $%.2f", expense.Date, centsToDollars(expense.TotalCents))
		if len(expense.Categories) > 0 {
			fmt.Fprintf(&b, " across %d categories", len(expense.Categories))
		}
		b.WriteString("\n")
	}

	if len(h.Categories) > 0 {
		b.WriteString("All-time category totals:\n")
		for _, category := range slices.Sorted(maps.Keys(h.Categories)) {
			fmt.Fprintf(&b, "- %s: $%.2f\n", category, centsToDollars(h.Categories[category]))
		}
	}
	if len(h.MonthlySummaries) > 0 {
		b.WriteString("Monthly totals:\n")
		for _, month := range slices.Sorted(maps.Keys(h.MonthlySummaries)) {
			summary := h.MonthlySummaries[month]
			fmt.Fprintf(&b, "- %s: $%.2f over %d runs\n", month, centsToDollars(summary.TotalCents), summary.RunCount)
		}
	}
	return strings.TrimSpace(b.String())
}

// dollarsToCents converts a model-reported dollar amount to integer cents
func dollarsToCents(dollars float64) int {
	return int(math.Round(dollars * 100))
}

func centsToDollars(cents int) float64 {
	return float64(cents) / 100
}
