package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// chunkColumns is the fixed schema of the unstructured table.
var chunkColumns = []Column{
	{Name: "CHUNK_ID", Type: "STRING"},
	{Name: "DOCUMENT_ID", Type: "STRING"},
	{Name: "CHUNK_TEXT", Type: "STRING"},
	{Name: "CHUNK_POSITION", Type: "NUMBER"},
	{Name: "CHUNK_LENGTH", Type: "NUMBER"},
	{Name: "DOCUMENT_TYPE", Type: "STRING"},
	{Name: "SOURCE_SYSTEM", Type: "STRING"},
	{Name: "CREATED_DATE", Type: "DATE"},
	{Name: "METADATA", Type: "STRING"},
}

func chunkSchema() TableSchema {
	return TableSchema{Columns: chunkColumns}
}

func textSamplesPrompt(table TableInfo, company string, count int) string {
	return fmt.Sprintf(`You are creating realistic unstructured text content for a Snowflake Cortex Search demo.

Table Information:
- Name: %s
- Description: %s
- Purpose: %s
- Company: %s

Generate %d different realistic text samples that would be found in this
type of data. Each should be 2-4 sentences long, professional but natural,
varied in tone, and appropriate for semantic search.

Return ONLY a JSON array of text strings:
["text sample 1", "text sample 2", ...]`,
		table.Name, table.Description, table.Purpose, company, count)
}

// textSamples asks the model for document text, capped at MaxChunks, with a
// fixed fallback corpus on parse failure.
func (p *Pipeline) textSamples(ctx context.Context, table TableInfo) []string {
	count := p.cfg.RowCount
	if count > p.cfg.MaxChunks {
		count = p.cfg.MaxChunks
	}

	response, err := p.complete(ctx, textSamplesPrompt(table, p.cfg.Company.Name, count))
	if err != nil {
		p.logger.Warn("text sample generation failed, using fallback", "table", table.Name, "error", err)
		return fallbackTexts()
	}

	raw, ok := extractJSONArray(response)
	if !ok {
		return fallbackTexts()
	}

	var samples []string
	if err := json.Unmarshal([]byte(raw), &samples); err != nil || len(samples) == 0 {
		p.logger.Debug("text sample response unparseable, using fallback", "table", table.Name)
		return fallbackTexts()
	}
	return samples
}

func fallbackTexts() []string {
	return []string{
		"This document contains important business information that needs to be searchable and accessible.",
		"The quarterly review shows significant improvements in key performance indicators across all departments.",
		"Customer feedback indicates high satisfaction with our latest product features and service quality.",
		"Compliance requirements have been updated to reflect the latest regulatory changes in our industry.",
		"The technical documentation provides detailed instructions for system configuration and maintenance.",
		"Market analysis reveals new opportunities for expansion in emerging geographical regions.",
		"Employee training materials have been revised to include best practices and updated procedures.",
		"Financial projections indicate steady growth potential over the next fiscal year period.",
		"Quality assurance protocols ensure consistent delivery of services meeting industry standards.",
		"Strategic planning documents outline key initiatives for digital transformation and innovation.",
	}
}

// chunkRows splits text samples on sentence boundaries into chunk-table rows.
// One document per requested record, one to two sentences per chunk.
func chunkRows(samples []string, records int, table TableInfo, company string, rng *rand.Rand) [][]string {
	docType := strings.ToLower(strings.TrimSuffix(table.Name, "_CHUNKS"))
	source := identifier(company)

	var rows [][]string
	chunkID := 1
	for doc := 0; doc < records; doc++ {
		text := samples[rng.Intn(len(samples))]
		sentences := strings.Split(text, ". ")

		size := rng.Intn(2) + 1
		for j := 0; j < len(sentences); j += size {
			end := j + size
			if end > len(sentences) {
				end = len(sentences)
			}
			chunk := strings.TrimSpace(strings.Join(sentences[j:end], ". "))
			if chunk == "" {
				continue
			}
			if !strings.HasSuffix(chunk, ".") {
				chunk += "."
			}

			meta, _ := json.Marshal(map[string]any{
				"source_table": table.Name,
				"chunk_method": "sentence_boundary",
				"language":     "en",
			})
			rows = append(rows, []string{
				fmt.Sprintf("CHUNK_%08d", chunkID),
				fmt.Sprintf("DOC_%06d", doc+1),
				chunk,
				fmt.Sprintf("%d", j/size+1),
				fmt.Sprintf("%d", len(chunk)),
				docType,
				source,
				time.Now().AddDate(0, 0, -(rng.Intn(365) + 1)).Format("2006-01-02"),
				string(meta),
			})
			chunkID++
		}
	}
	return rows
}
