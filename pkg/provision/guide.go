package provision

import (
	"fmt"
	"strings"
)

// buildGuide assembles the markdown demo guide from the outcome.
func buildGuide(company string, out *Outcome) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Demo: %s\n\n", company, out.Plan.Title)
	fmt.Fprintf(&b, "%s\n\n", out.Plan.Description)

	b.WriteString("## Data Generated\n\n")
	for _, t := range out.Tables {
		fmt.Fprintf(&b, "- **%s** (%d records) - %s\n", t.Name, t.Records, t.Description)
	}
	if out.SemanticView != "" {
		fmt.Fprintf(&b, "- **%s** - Semantic view joining the structured tables on ENTITY_ID\n", out.SemanticView)
	}
	if out.SearchService != "" {
		fmt.Fprintf(&b, "- **%s** - Cortex Search service for document retrieval\n", out.SearchService)
	}

	b.WriteString("\n## Example Analyst Queries\n\n")
	for i, q := range out.ExampleQueries {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. \"%s\"\n", i+1, q)
	}

	b.WriteString(`
## Demo Flow

### Step 1: Structured Data Analysis
Ask: "What are the top 5 performing entities and their key metrics?"
The agent queries the structured tables and joins them on ENTITY_ID.

### Step 2: Reasoning Follow-up
Ask: "What could be the reasons for these performance differences?"
The agent reasons over the previous answer without querying data.

### Step 3: Unstructured Knowledge Retrieval
Ask: "Find relevant best practices for improving these metrics"
The agent searches the document chunks and combines the results with the
earlier analysis.
`)

	fmt.Fprintf(&b, "\nYour %s demo environment is ready. Chat with the `%s` agent to get started.\n",
		company, out.AgentName)
	return b.String()
}
