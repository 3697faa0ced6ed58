package grocery

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// InventoryItemView is an inventory item plus dashboard-computed fields
type InventoryItemView struct {
	Item
	DaysUntilExpiration *int `json:"days_until_expiration,omitempty"`
}

// InventoryView is the /api/inventory response shape
type InventoryView struct {
	RunID   string              `json:"run_id,omitempty"`
	TakenAt *time.Time          `json:"taken_at,omitempty"`
	Items   []InventoryItemView `json:"items"`
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleInventory returns the latest inventory snapshot with the days left
// until each item expires. Before the first run it returns an empty list.
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	view := InventoryView{Items: []InventoryItemView{}}

	snapshot, err := s.ledger.GetInventory()
	if err == nil {
		view.RunID = snapshot.RunID
		view.TakenAt = &snapshot.TakenAt
		now := time.Now()
		for _, item := range snapshot.Items {
			view.Items = append(view.Items, InventoryItemView{
				Item:                item,
				DaysUntilExpiration: daysUntil(item.ExpirationDate, now),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// daysUntil computes whole days from today to the expiration date, or nil
// when the date does not parse.
func daysUntil(expiration string, now time.Time) *int {
	expires, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(expires.Sub(today).Hours() / 24)
	return &days
}

// handleListRuns returns all recorded runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.ledger.ListRuns()
	if err != nil {
		slog.Error("Error listing runs", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if runs == nil {
		runs = []*RunRecord{}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleRecipes serves the latest recipe recommendation file
func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	data, err := s.sink.Get(RecipeFile)
	if err != nil {
		// No run has produced recipes yet
		empty := RecipeRecommendations{
			Recipes:                []Recipe{},
			RestockRecommendations: []RestockRecommendation{},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(empty); err != nil {
			slog.Error("Error encoding response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleExpenses serves the expense history file
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	data, err := s.sink.Get(ExpenseHistoryFile)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(NewExpenseHistory()); err != nil {
			slog.Error("Error encoding response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
