package provision

import "fmt"

// searchServiceDDL renders the Cortex Search service over the chunk table.
func searchServiceDDL(schema, table, warehouse string) (ddl string, serviceName string) {
	serviceName = table + "_SEARCH_SERVICE"
	ddl = fmt.Sprintf(`CREATE OR REPLACE CORTEX SEARCH SERVICE %s.%s
ON CHUNK_TEXT
ATTRIBUTES CHUNK_ID, DOCUMENT_ID, DOCUMENT_TYPE, SOURCE_SYSTEM
WAREHOUSE = %s
TARGET_LAG = '1 minute'
AS (
    SELECT
        CHUNK_ID,
        DOCUMENT_ID,
        DOCUMENT_TYPE,
        SOURCE_SYSTEM,
        CHUNK_TEXT
    FROM %s.%s
)`, schema, serviceName, warehouse, schema, table)
	return ddl, serviceName
}
