package provision

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// entityIDOverlap is the share of join keys the second structured table
// reuses from the first, so joins return meaningful results.
const entityIDOverlap = 0.7

// entityIDPools returns one ID slice per structured table. The first table
// gets n unique IDs; the second reuses 70% of them and fills the rest from
// IDs the first table does not have.
func entityIDPools(n int, rng *rand.Rand) (first, second []int) {
	base := make([]int, n*2)
	for i := range base {
		base[i] = i + 1
	}
	rng.Shuffle(len(base), func(i, j int) { base[i], base[j] = base[j], base[i] })

	first = base[:n]

	overlap := int(float64(n) * entityIDOverlap)
	second = make([]int, 0, n)
	second = append(second, first[:overlap]...)
	second = append(second, base[n:n+(n-overlap)]...)
	rng.Shuffle(len(second), func(i, j int) { second[i], second[j] = second[j], second[i] })

	return first, second
}

// cellValue synthesizes one cell for a column, preferring the schema's
// sample values and falling back by declared type.
func cellValue(col Column, row int, rng *rand.Rand) string {
	switch strings.ToUpper(col.Type) {
	case "STRING", "VARCHAR", "TEXT":
		if len(col.SampleValues) > 0 {
			return col.SampleValues[rng.Intn(len(col.SampleValues))]
		}
		return fmt.Sprintf("Sample_%d", row+1)

	case "NUMBER", "INTEGER", "INT":
		if strings.Contains(strings.ToUpper(col.Name), "ID") {
			return strconv.Itoa(row + 1)
		}
		if v, ok := sampleInt(col.SampleValues, rng); ok {
			return strconv.Itoa(v)
		}
		return strconv.Itoa(rng.Intn(1000) + 1)

	case "FLOAT", "DECIMAL", "DOUBLE":
		if len(col.SampleValues) > 0 {
			if f, err := strconv.ParseFloat(col.SampleValues[rng.Intn(len(col.SampleValues))], 64); err == nil {
				return strconv.FormatFloat(f, 'f', 2, 64)
			}
		}
		return strconv.FormatFloat(rng.Float64()*1000, 'f', 2, 64)

	case "DATE":
		return time.Now().AddDate(0, 0, -(rng.Intn(365) + 1)).Format("2006-01-02")

	case "TIMESTAMP", "DATETIME":
		return time.Now().Add(-time.Duration(rng.Intn(365*24)) * time.Hour).Format("2006-01-02 15:04:05")

	case "BOOLEAN":
		if rng.Intn(2) == 0 {
			return "TRUE"
		}
		return "FALSE"

	default:
		if len(col.SampleValues) > 0 {
			return col.SampleValues[rng.Intn(len(col.SampleValues))]
		}
		return fmt.Sprintf("Value_%d", row+1)
	}
}

// sampleInt picks a random numeric sample value, skipping non-numeric ones.
func sampleInt(samples []string, rng *rand.Rand) (int, bool) {
	var ints []int
	for _, s := range samples {
		if v, err := strconv.Atoi(s); err == nil {
			ints = append(ints, v)
		}
	}
	if len(ints) == 0 {
		return 0, false
	}
	return ints[rng.Intn(len(ints))], true
}

// rowsFromSchema builds n rows of string cells in schema column order.
// ENTITY_ID cells come sequentially from entityIDs.
func rowsFromSchema(schema TableSchema, n int, entityIDs []int, rng *rand.Rand) [][]string {
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(schema.Columns))
		for _, col := range schema.Columns {
			if col.Name == "ENTITY_ID" && i < len(entityIDs) {
				row = append(row, strconv.Itoa(entityIDs[i]))
				continue
			}
			row = append(row, cellValue(col, i, rng))
		}
		rows = append(rows, row)
	}
	return rows
}

// createTableDDL renders CREATE OR REPLACE TABLE with ENTITY_ID as the
// primary key.
func createTableDDL(schema string, table string, ts TableSchema) string {
	cols := make([]string, 0, len(ts.Columns))
	for _, col := range ts.Columns {
		if col.Name == "ENTITY_ID" {
			cols = append(cols, "ENTITY_ID NUMBER PRIMARY KEY")
			continue
		}
		cols = append(cols, fmt.Sprintf("%s %s", col.Name, snowflakeType(col.Type)))
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s.%s (\n    %s\n)", schema, table, strings.Join(cols, ",\n    "))
}

func snowflakeType(t string) string {
	switch strings.ToUpper(t) {
	case "NUMBER", "INTEGER", "INT":
		return "NUMBER"
	case "FLOAT", "DECIMAL", "DOUBLE":
		return "FLOAT"
	case "DATE":
		return "DATE"
	case "TIMESTAMP", "DATETIME":
		return "TIMESTAMP"
	case "BOOLEAN":
		return "BOOLEAN"
	default:
		return "STRING"
	}
}

// insertBatchSize bounds the number of rows per INSERT statement.
const insertBatchSize = 50

// insertStatements renders batched multi-row INSERTs. All cells are passed
// as quoted literals; Snowflake coerces them to the column types.
func insertStatements(schema string, table string, ts TableSchema, rows [][]string) []string {
	names := make([]string, len(ts.Columns))
	for i, col := range ts.Columns {
		names[i] = col.Name
	}
	header := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES\n", schema, table, strings.Join(names, ", "))

	var stmts []string
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		for _, row := range rows[start:end] {
			cells := make([]string, len(row))
			for i, cell := range row {
				cells[i] = "'" + sqlString(cell) + "'"
			}
			values = append(values, "("+strings.Join(cells, ", ")+")")
		}
		stmts = append(stmts, header+strings.Join(values, ",\n"))
	}
	return stmts
}
