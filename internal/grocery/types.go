package grocery

import (
	"encoding/json"
	"fmt"
	"time"
)

// Item is one grocery line item. ExpirationDate is empty until the
// estimation stage fills it in.
type Item struct {
	ItemName       string `json:"item_name"`
	Count          int    `json:"count"`
	Unit           string `json:"unit"`
	ExpirationDate string `json:"expiration_date,omitempty"` // YYYY-MM-DD
}

// ReceiptExtraction is the receipt interpretation output
type ReceiptExtraction struct {
	Items          []Item `json:"items"`
	DateOfPurchase string `json:"date_of_purchase"`
}

// Inventory is the item list carried by the estimation and tracking stages
type Inventory struct {
	Items []Item `json:"items"`
}

// RecipeIngredient is one ingredient of a recommended recipe
type RecipeIngredient struct {
	ItemName string `json:"item_name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// Recipe is a single recommended recipe
type Recipe struct {
	RecipeName  string             `json:"recipe_name"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []string           `json:"steps"`
	Source      string             `json:"source"`
}

// RestockRecommendation suggests an item to buy when ingredients run short
type RestockRecommendation struct {
	ItemName       string `json:"item_name"`
	QuantityNeeded int    `json:"quantity_needed"`
	Unit           string `json:"unit"`
}

// RecipeRecommendations is the recipe stage output
type RecipeRecommendations struct {
	Recipes                []Recipe                `json:"recipes"`
	RestockRecommendations []RestockRecommendation `json:"restock_recommendations"`
}

// ExpenseSummary totals one receipt. Amounts are dollars as the model
// reports them; the expense history converts to cents.
type ExpenseSummary struct {
	TotalAmount       float64            `json:"total_amount"`
	Date              string             `json:"date"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
}

// PriceTrend compares an item's current price against history
type PriceTrend struct {
	ItemName     string  `json:"item_name"`
	CurrentPrice float64 `json:"current_price"`
	AveragePrice float64 `json:"average_price"`
	PriceTrend   string  `json:"price_trend"` // Increasing/Decreasing/Stable
}

// ExpenseReport is the expense analysis output
type ExpenseReport struct {
	ExpenseSummary ExpenseSummary `json:"expense_summary"`
	Insights       []string       `json:"insights"`
	PriceTrends    []PriceTrend   `json:"price_trends"`
}

// RunRecord summarizes one completed pipeline run for the ledger
type RunRecord struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	ReceiptSource string    `json:"receipt_source"`
	ItemCount     int       `json:"item_count"`
	RecipeCount   int       `json:"recipe_count"`
	TotalCents    int       `json:"total_cents"`
	Artifacts     []string  `json:"artifacts"`
}

// InventorySnapshot is the inventory as of a given run
type InventorySnapshot struct {
	RunID   string    `json:"run_id"`
	TakenAt time.Time `json:"taken_at"`
	Items   []Item    `json:"items"`
}

// ParseReceiptExtraction decodes a receipt interpretation JSON document
func ParseReceiptExtraction(data string) (*ReceiptExtraction, error) {
	var extraction ReceiptExtraction
	if err := json.Unmarshal([]byte(data), &extraction); err != nil {
		return nil, fmt.Errorf("parsing receipt extraction: %w", err)
	}
	return &extraction, nil
}

// ParseInventory decodes an inventory JSON document
func ParseInventory(data string) (*Inventory, error) {
	var inventory Inventory
	if err := json.Unmarshal([]byte(data), &inventory); err != nil {
		return nil, fmt.Errorf("parsing inventory: %w", err)
	}
	return &inventory, nil
}

// ParseRecipes decodes a recipe recommendation JSON document
func ParseRecipes(data string) (*RecipeRecommendations, error) {
	var recipes RecipeRecommendations
	if err := json.Unmarshal([]byte(data), &recipes); err != nil {
		return nil, fmt.Errorf("parsing recipe recommendations: %w", err)
	}
	return &recipes, nil
}

// ParseExpenseReport decodes an expense report JSON document
func ParseExpenseReport(data string) (*ExpenseReport, error) {
	var report ExpenseReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("parsing expense report: %w", err)
	}
	return &report, nil
}
