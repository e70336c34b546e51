package prompts

import (
	"fmt"
)

// SuggestedPrompts are offered in the chat UI as starting points.
var SuggestedPrompts = []string{
	"What are the top selling products?",
	"Compare sales across different regions",
	"Which product category generates highest revenue?",
}

// PromptBuilder constructs the prompts sent to the LLM.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildAnalysisPrompt asks the model to either suggest available insights
// (info) or produce concrete insights with SQL (analysis), always as JSON.
func (pb *PromptBuilder) BuildAnalysisPrompt(question, metadataJSON string) string {
	return fmt.Sprintf(`You are an expert business intelligence analyst. Analyze the following:

USER QUERY: %[1]s

AVAILABLE DATA:
Tables and their columns:
%[2]s

TASK:
1. For general questions about available insights:
   - Analyze the table structure and relationships
   - Suggest 2-3 concrete, specific insights that could be generated
   - Focus on business value and actionable information
   - DO NOT say "this is a general question" or ask for refinement

2. For specific analysis questions:
   - Generate specific insights with SQL queries
   - Include business value and visualization suggestions

OUTPUT FORMAT:
If asking about available insights:
{
    "response_type": "info",
    "answer": "Based on the available data, I can provide insights about: 1) [First specific insight possibility], 2) [Second specific insight possibility], 3) [Third specific insight possibility]"
}

If asking for specific analysis:
{
    "response_type": "analysis",
    "insights": [
        {
            "insight": "Clear description of what we're looking for",
            "business_value": "1-2 sentence explanation of why this matters",
            "sql_query": "Optimized SQL query",
            "visualization": "Suggested chart type (e.g., line_chart, bar_chart, heatmap)",
            "metrics": ["list", "of", "key", "metrics"]
        }
    ]
}

REQUIREMENTS:
- For general questions, always analyze the schema and suggest concrete insights
- For specific queries, provide SQL without string concatenation
- SQL must be a single read-only SELECT statement
- Each SQL clause should be on a new line
- Ensure all column references exist in the provided metadata
- Use single quotes for string literals in SQL
- Join tables on product_id where both tables are needed

EXAMPLE:
For "Which product category generates highest revenue?" respond with:
{
    "response_type": "analysis",
    "insights": [
        {
            "insight": "Revenue generated per product category",
            "business_value": "Shows which categories drive the business, guiding inventory and marketing spend.",
            "sql_query": "SELECT p.category, SUM(s.sales_amount) AS revenue FROM sales_data s JOIN product_info p ON s.product_id = p.product_id GROUP BY p.category ORDER BY revenue DESC",
            "visualization": "bar_chart",
            "metrics": ["category", "revenue"]
        }
    ]
}

Now, analyze the following query:
%[1]s`, question, metadataJSON)
}

// BuildErrorPrompt asks the model for a user-friendly error message.
func (pb *PromptBuilder) BuildErrorPrompt(question string, err error) string {
	return fmt.Sprintf(`Generate a user-friendly error message for this failed query:

Question: "%s"

Error: %v

Requirements:
1. Explain the issue in simple terms
2. Suggest how to rephrase the question
3. Keep the message concise and helpful

Error Message:`, question, err)
}
