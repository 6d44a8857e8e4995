// internal/workers/financial-data/retrieve-financial-data/models.go
package retrievefinancialdata

import "findata-workers/internal/models"

type Input struct {
	CompanyOrURL string `json:"companyOrUrl"`
	ForceRefresh bool   `json:"forceRefresh"`
	TimeoutMs    int    `json:"timeoutMs"`
}

type Output struct {
	FinancialData *models.RetrievalResult `json:"financialData"`
}

// inputSchema validates the job variables. Other process variables are allowed.
const inputSchema = `{
	"type": "object",
	"required": ["companyOrUrl"],
	"properties": {
		"companyOrUrl": {"type": "string", "minLength": 1, "maxLength": 2048, "pattern": "\\S"},
		"forceRefresh": {"type": "boolean"},
		"timeoutMs": {"type": "integer", "minimum": 1000, "maximum": 300000}
	}
}`
