package searchresults

import (
	"findata-workers/internal/financial/extract"
	"findata-workers/internal/models"
	"findata-workers/internal/sources"
)

type searchResponse struct {
	KnowledgeGraph *knowledgeGraph `json:"knowledge_graph"`
	AnswerBox      *answerBox      `json:"answer_box"`
	OrganicResults []organicResult `json:"organic_results"`
}

type knowledgeGraph struct {
	Title             sources.FlexString `json:"title"`
	Type              sources.FlexString `json:"type"`
	Description       sources.FlexString `json:"description"`
	Founded           sources.FlexString `json:"founded"`
	Headquarters      sources.FlexString `json:"headquarters"`
	Revenue           sources.FlexString `json:"revenue"`
	NumberOfEmployees sources.FlexString `json:"number_of_employees"`
	Employees         sources.FlexString `json:"employees"`
	Funding           sources.FlexString `json:"funding"`
	TotalFunding      sources.FlexString `json:"total_funding"`
	Valuation         sources.FlexString `json:"valuation"`
	Industry          sources.FlexString `json:"industry"`
}

func firstOf(values ...sources.FlexString) string {
	for _, v := range values {
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func (kg *knowledgeGraph) record() *models.FinancialRecord {
	rec := &models.FinancialRecord{
		Revenue:       moneyOrEmpty(kg.Revenue.String()),
		TotalFunding:  moneyOrEmpty(firstOf(kg.TotalFunding, kg.Funding)),
		Valuation:     moneyOrEmpty(kg.Valuation.String()),
		EmployeeCount: extract.Employees(firstOf(kg.NumberOfEmployees, kg.Employees)),
		FoundedYear:   extract.Year(kg.Founded.String()),
		Headquarters:  kg.Headquarters.String(),
		Industry:      firstOf(kg.Industry, kg.Type),
	}
	if d := kg.Description.String(); len(d) > models.MinDescriptionLength {
		rec.Description = models.TruncateDescription(d)
	}
	return rec
}

func moneyOrEmpty(s string) string {
	if s == "" {
		return ""
	}
	return extract.Money(s)
}

type answerBox struct {
	Answer  sources.FlexString `json:"answer"`
	Snippet sources.FlexString `json:"snippet"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}
