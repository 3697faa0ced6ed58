package grocery

import (
	"fmt"
	"strings"

	"github.com/Abby263/grocery-tracking-agent/internal/crew"
)

// Task names, used to address stage outputs.
const (
	TaskReadReceipt         = "read_receipt"
	TaskEstimateExpirations = "estimate_expirations"
	TaskTrackInventory      = "track_inventory"
	TaskRecommendRecipes    = "recommend_recipes"
	TaskAnalyzeExpenses     = "analyze_expenses"
)

// StageInputs carries the run-specific values the stage prompts embed.
type StageInputs struct {
	// ReceiptMarkdown is the ingested receipt document, possibly empty
	ReceiptMarkdown string
	// Today is the run date in YYYY-MM-DD
	Today string
	// Consumption is the user's description of items consumed since
	// purchase; empty means no consumption reported
	Consumption string
	// HistoryContext is a compact summary of the prior expense history
	HistoryContext string
}

// BuildTasks assembles the five pipeline stages in execution order. The
// shelf-life tool backs the expiration agent and the recipe tool backs the
// recommendation agent; either may be nil to run without retrieval.
func BuildTasks(inputs StageInputs, shelfLife, recipes crew.Tool) []*crew.Task {
	interpreter := &crew.Agent{
		Role: "Receipt Markdown Interpreter",
		Goal: "Accurately extract items, their counts, and weights with units from a given receipt in markdown format. " +
			"Provide structured data to support the grocery management system.",
		Backstory: "As a key member of the grocery management crew for the household, your mission is to meticulously extract " +
			"details such as item names, quantities, and weights from receipt markdown files. Your role is vital for the " +
			"grocery tracker agent, which monitors the household's inventory levels.",
		Personality: "Diligent, detail-oriented, and efficient. The Receipt Markdown Interpreter is committed to providing accurate " +
			"and structured information to support effective grocery management. It is particularly focused on clarity and precision.",
	}

	estimator := &crew.Agent{
		Role: "Expiration Date Estimation Specialist",
		Goal: "Accurately estimate the expiration dates of items extracted by the Receipt Markdown Interpreter Agent. " +
			"Utilize online sources to determine typical shelf life when refrigerated and add the estimated number of days to the purchase date.",
		Backstory: "As the Expiration Date Estimation Specialist, your role is to ensure the household's groceries are consumed before expiration. " +
			"You use your access to online resources to search for the best estimates on how long each item typically lasts when stored properly.",
		Personality: "Meticulous, resourceful, and reliable. This agent ensures the household maintains a well-stocked but efficiently used inventory, minimizing waste.",
		Tool:        shelfLife,
	}

	tracker := &crew.Agent{
		Role: "Grocery Inventory Tracker",
		Goal: "Accurately track the remaining groceries based on user consumption input. " +
			"Subtract consumed items from the grocery list obtained from the Expiration Date Estimation Specialist and update the inventory. " +
			"Provide the user with an updated list of what's left, along with corresponding expiration dates.",
		Backstory: "As the household's Grocery Inventory Tracker, your responsibility is to ensure that groceries are accurately tracked based on user input. " +
			"You need to understand the user's input on what they've consumed, update the inventory list, and remind them of what's left and the expiration dates. " +
			"Your role is crucial in helping the household avoid waste and ensure timely consumption of perishable items.",
		Personality: "Helpful, detail-oriented, and responsive. This agent is focused on ensuring the household has an up-to-date inventory, minimizing waste, and helping users stay organized.",
	}

	recommender := &crew.Agent{
		Role: "Grocery Recipe Recommendation Specialist",
		Goal: "Provide recipe recommendations using the remaining groceries in the inventory. " +
			"Avoid using items with a count of 0 and prioritize recipes that maximize the use of available ingredients. " +
			"If ingredients are insufficient, suggest restocking recommendations.",
		Backstory: "As a Grocery Recipe Recommendation Specialist, your mission is to help the household make the most out of their remaining groceries. " +
			"Your role is to search the web for easy, delicious recipes that utilize available ingredients while minimizing waste. " +
			"Ensure that the recipes are simple to follow and use as many of the remaining ingredients as possible.",
		Personality: "Creative, resourceful, and efficient. This agent is dedicated to helping the household create enjoyable meals with what they have on hand.",
		Tool:        recipes,
	}

	analyst := &crew.Agent{
		Role: "Grocery Expense Analyst",
		Goal: "Track and analyze grocery expenses, provide spending insights, and help optimize the grocery budget. " +
			"Generate detailed reports on spending patterns and identify potential savings opportunities.",
		Backstory: "As the household's Grocery Expense Analyst, you are responsible for maintaining detailed records of all grocery " +
			"expenses, categorizing items, tracking price trends, and providing actionable insights for budget optimization. " +
			"Your analysis helps the household make informed decisions about their grocery spending.",
		Personality: "Analytical, detail-oriented, and proactive. This agent excels at identifying spending patterns, tracking price " +
			"changes, and suggesting ways to optimize the grocery budget while maintaining quality.",
	}

	readReceipt := &crew.Task{
		Name:  TaskReadReceipt,
		Agent: interpreter,
		Description: fmt.Sprintf(
			"Analyze the receipt markdown file provided: %s. "+
				"Extract information on items purchased, their counts, weights, and units. "+
				"Additionally, extract today's date information which is provided here: %s. "+
				"Ensure all item names are converted into clear, human-readable text.",
			inputs.ReceiptMarkdown, inputs.Today),
		ExpectedOutput: `{
    "items": [
        {
            "item_name": "string - Human-readable name of the item",
            "count": "integer - Number of units purchased",
            "unit": "string - Unit of measurement (e.g., kg, lbs, pcs)"
        }
    ],
    "date_of_purchase": "string - Date in YYYY-MM-DD format"
}`,
		ExpectsJSON: true,
	}

	estimateExpirations := &crew.Task{
		Name:  TaskEstimateExpirations,
		Agent: estimator,
		Description: "Using the list of items extracted by the Receipt Markdown Interpreter Agent, search online to find the typical shelf life of each item when refrigerated. " +
			"Add this information to the date of purchase to estimate the expiration date for each item. " +
			"Ensure that the output includes the item name, count, unit, and estimated expiration date.",
		ExpectedOutput: `{
    "items": [
        {
            "item_name": "string - Human-readable name of the item",
            "count": "integer - Number of units purchased",
            "unit": "string - Unit of measurement (e.g., kg, lbs, pcs)",
            "expiration_date": "string - Estimated expiration date in YYYY-MM-DD format"
        }
    ]
}`,
		Context:     []*crew.Task{readReceipt},
		ExpectsJSON: true,
		ToolQuery:   shelfLifeQuery,
	}

	trackInventory := &crew.Task{
		Name:  TaskTrackInventory,
		Agent: tracker,
		Description: "Using the grocery list with expiration dates provided by the Expiration Date Estimation Specialist, " +
			"update the inventory based on the user's consumption input. " +
			consumptionClause(inputs.Consumption) + " " +
			"Subtract the consumed quantities from the inventory list and provide a summary of what items are left, including their expiration dates. " +
			"Ensure that the updated list is returned in JSON format.",
		ExpectedOutput: `{
    "items": [
        {
            "item_name": "string - Human-readable name of the item",
            "count": "integer - Updated number of units remaining",
            "unit": "string - Unit of measurement (e.g., kg, lbs, pcs)",
            "expiration_date": "string - Estimated expiration date in YYYY-MM-DD format"
        }
    ]
}`,
		Context:     []*crew.Task{estimateExpirations},
		ExpectsJSON: true,
		OutputFile:  TrackerFile,
	}

	recommendRecipes := &crew.Task{
		Name:  TaskRecommendRecipes,
		Agent: recommender,
		Description: "Using the updated grocery list provided by the Grocery Inventory Tracker, " +
			"search online for recipes that utilize the available ingredients. " +
			"Only include items with a count greater than zero. If no suitable recipe can be found, provide restocking recommendations. " +
			"Ensure that the output includes recipe names, ingredients, instructions, and the source website.",
		ExpectedOutput: `{
    "recipes": [
        {
            "recipe_name": "string - Name of the recipe",
            "ingredients": [
                {
                    "item_name": "string - Ingredient name",
                    "quantity": "string - Quantity required",
                    "unit": "string - Measurement unit (e.g., kg, pcs, tbsp)"
                }
            ],
            "steps": [
                "string - Step-by-step instructions for the recipe"
            ],
            "source": "string - Website URL for the recipe"
        }
    ],
    "restock_recommendations": [
        {
            "item_name": "string - Name of the item to restock",
            "quantity_needed": "integer - Suggested quantity to purchase",
            "unit": "string - Measurement unit (e.g., kg, pcs)"
        }
    ]
}`,
		Context:     []*crew.Task{trackInventory},
		ExpectsJSON: true,
		OutputFile:  RecipeFile,
		ToolQuery:   recipeQuery,
	}

	analyzeExpenses := &crew.Task{
		Name:  TaskAnalyzeExpenses,
		Agent: analyst,
		Description: "Using the receipt data from the Receipt Interpreter Agent, analyze the expenses and generate a detailed report. " +
			"Track spending patterns, categorize items, calculate totals, and provide insights for budget optimization. " +
			"Compare current prices against the household's prior spending, summarized here:\n" + inputs.HistoryContext,
		ExpectedOutput: `{
    "expense_summary": {
        "total_amount": "float - Total amount spent",
        "date": "string - Purchase date",
        "category_breakdown": {
            "category_name": "float - Amount spent in this category"
        }
    },
    "insights": [
        "string - Spending insights and recommendations"
    ],
    "price_trends": [
        {
            "item_name": "string - Name of the item",
            "current_price": "float - Current price",
            "average_price": "float - Average price from history",
            "price_trend": "string - Increasing/Decreasing/Stable"
        }
    ]
}`,
		Context:     []*crew.Task{readReceipt},
		ExpectsJSON: true,
		OutputFile:  ExpenseReportFile,
	}

	return []*crew.Task{
		readReceipt,
		estimateExpirations,
		trackInventory,
		recommendRecipes,
		analyzeExpenses,
	}
}

// consumptionClause renders the user's consumption input as part of the
// tracking instruction.
func consumptionClause(consumption string) string {
	consumption = strings.TrimSpace(consumption)
	if consumption == "" {
		return "The user reported no consumption since purchase, so every count stays unchanged."
	}
	return fmt.Sprintf("The user reports having consumed: %q.", consumption)
}

// shelfLifeQuery builds the retrieval query for the expiration stage from
// the interpreter's extraction. Parse problems skip retrieval; the model
// then estimates from its own knowledge.
func shelfLifeQuery(outputs map[string]crew.TaskOutput) string {
	out, ok := outputs[TaskReadReceipt]
	if !ok {
		return ""
	}
	extraction, err := ParseReceiptExtraction(out.JSON)
	if err != nil || len(extraction.Items) == 0 {
		return ""
	}
	names := itemNames(extraction.Items, 6, false)
	return fmt.Sprintf("how long do %s last when refrigerated", strings.Join(names, ", "))
}

// recipeQuery builds the retrieval query for the recipe stage from the
// tracked inventory, using only items still in stock.
func recipeQuery(outputs map[string]crew.TaskOutput) string {
	out, ok := outputs[TaskTrackInventory]
	if !ok {
		return ""
	}
	inventory, err := ParseInventory(out.JSON)
	if err != nil {
		return ""
	}
	names := itemNames(inventory.Items, 6, true)
	if len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("recipes using %s", strings.Join(names, ", "))
}

// itemNames collects up to max item names, optionally skipping items that
// are out of stock.
func itemNames(items []Item, max int, inStockOnly bool) []string {
	names := make([]string, 0, max)
	for _, item := range items {
		if inStockOnly && item.Count <= 0 {
			continue
		}
		name := strings.TrimSpace(item.ItemName)
		if name == "" {
			continue
		}
		names = append(names, name)
		if len(names) >= max {
			break
		}
	}
	return names
}
