package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/Abby263/grocery-tracking-agent/internal/grocery"
	"github.com/Abby263/grocery-tracking-agent/internal/llm"
	"github.com/Abby263/grocery-tracking-agent/internal/scanning"
	"github.com/Abby263/grocery-tracking-agent/internal/websearch"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Optional .env file for API keys
	_ = godotenv.Load()

	fs := ff.NewFlagSet("grocery-agent")
	var (
		dataPath      = fs.StringLong("data", "data", "Data directory for receipt and stage output files")
		dbPath        = fs.StringLong("db", "grocery-agent.db", "Run ledger database file path")
		receiptPath   = fs.StringLong("receipt", "", "Receipt image or PDF to scan (omit to use the markdown file in the data directory)")
		consumed      = fs.StringLong("consumed", "", "Items consumed since the receipt (e.g. 'two eggs and a glass of milk')")
		noInput       = fs.BoolLong("no-input", "Skip the interactive consumption prompt")
		providerType  = fs.StringLong("provider", "gemini", "Model provider: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY / GOOGLE_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-1.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (must accept images, e.g. llava, bakllava)")
		shelfLifeSite = fs.StringLong("shelf-life-site", "https://www.stilltasty.com/", "Site searched for shelf-life estimates")
		recipeSite    = fs.StringLong("recipe-site", "https://www.americastestkitchen.com/recipes", "Site searched for recipes")
		verbose       = fs.BoolLong("verbose", "Log task prompts and responses")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GROCERY_AGENT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Initialize the model provider
	var provider llm.Provider
	var err error
	switch *providerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini provider...", "model", *geminiModel)
		provider, err = llm.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama provider...", "url", *ollamaURL, "model", *ollamaModel)
		provider, err = llm.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid provider type", "type", *providerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer provider.Close()

	// Initialize the run ledger
	slog.Info("Initializing run ledger...")
	ledger, err := grocery.NewBoltLedger(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize run ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	// Initialize the data directory
	sink, err := grocery.NewDataDir(*dataPath)
	if err != nil {
		slog.Error("Failed to initialize data directory", "error", err)
		os.Exit(1)
	}

	// Initialize the research tools
	searcher := websearch.NewDuckDuckGo()
	fetcher := websearch.NewHTTPFetcher()
	shelfLife, err := websearch.NewSiteSearch(*shelfLifeSite, searcher, fetcher)
	if err != nil {
		slog.Error("Failed to initialize shelf-life research tool", "error", err)
		os.Exit(1)
	}
	recipes, err := websearch.NewSiteSearch(*recipeSite, searcher, fetcher)
	if err != nil {
		slog.Error("Failed to initialize recipe research tool", "error", err)
		os.Exit(1)
	}

	scanner := scanning.NewVisionScanner(provider)
	service := grocery.NewService(provider, scanner, sink, ledger, shelfLife, recipes)

	consumption := *consumed
	if consumption == "" && !*noInput {
		consumption = promptConsumption()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := service.Run(ctx, grocery.RunOptions{
		ReceiptImagePath: *receiptPath,
		Consumption:      consumption,
	})
	if err != nil {
		slog.Error("Pipeline run failed", "error", err)
		os.Exit(1)
	}

	printSummary(result)
}

// promptConsumption asks the user what they have eaten since the receipt,
// mirroring the tracking stage's human input.
func promptConsumption() string {
	fmt.Print("What have you consumed since this receipt? (press enter for nothing): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func printSummary(result *grocery.RunResult) {
	fmt.Printf("\nRun %s finished.\n\n", result.Record.ID)

	fmt.Println("Inventory:")
	if len(result.Inventory.Items) == 0 {
		fmt.Println("  (empty)")
	}
	for _, item := range result.Inventory.Items {
		line := fmt.Sprintf("  %-20s %d %s", item.ItemName, item.Count, item.Unit)
		if item.ExpirationDate != "" {
			line += " (expires " + item.ExpirationDate + ")"
		}
		fmt.Println(line)
	}

	if len(result.Recipes.Recipes) > 0 {
		fmt.Println("\nRecipe ideas:")
		for _, recipe := range result.Recipes.Recipes {
			fmt.Printf("  %s", recipe.RecipeName)
			if recipe.Source != "" {
				fmt.Printf(" (%s)", recipe.Source)
			}
			fmt.Println()
		}
	}
	if len(result.Recipes.RestockRecommendations) > 0 {
		fmt.Println("\nWorth restocking:")
		for _, restock := range result.Recipes.RestockRecommendations {
			fmt.Printf("  %s (%d %s)\n", restock.ItemName, restock.QuantityNeeded, restock.Unit)
		}
	}

	fmt.Printf("\nSpent $%.2f on %s.\n", result.Report.ExpenseSummary.TotalAmount, result.Report.ExpenseSummary.Date)
	for _, insight := range result.Report.Insights {
		fmt.Printf("  - %s\n", insight)
	}
}
