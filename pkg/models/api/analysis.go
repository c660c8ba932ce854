package api

// AnalysisResponse is the payload returned by /api/analyze and /api/analyze-by-date.
type AnalysisResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Results      *AnalysisResults    `json:"results,omitempty"`
	ContextReady bool                `json:"context_ready"`
	FilesUsed    map[string]FileInfo `json:"files_used,omitempty"`
}

type AnalysisResults struct {
	BalanceSheet *BalanceSheetSection `json:"balance_sheet,omitempty"`
	Consumption  *ConsumptionSection  `json:"consumption,omitempty"`
}

type FileInfo struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows,omitempty"`
	Columns  int    `json:"columns,omitempty"`
}

type Variation struct {
	JMinus1   float64 `json:"j_minus_1"`
	J         float64 `json:"j"`
	Variation float64 `json:"variation"`
}

type BalanceSheetVariations struct {
	Actif  *Variation `json:"ACTIF,omitempty"`
	Passif *Variation `json:"PASSIF,omitempty"`
}

type BalanceSheetSection struct {
	Title          string                  `json:"title"`
	PivotTableHTML string                  `json:"pivot_table_html"`
	Summary        string                  `json:"summary,omitempty"`
	Variations     *BalanceSheetVariations `json:"variations,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

type ConsumptionVariations struct {
	Global *Variation `json:"global,omitempty"`
}

// MetierRow is one business line entry of metier_details.
type MetierRow struct {
	Group    string  `json:"LCR_ECO_GROUPE_METIERS"`
	Metier   string  `json:"Métier"`
	ImpactBn float64 `json:"LCR_ECO_IMPACT_LCR_Bn"`
}

type MetierDetails struct {
	J       []MetierRow `json:"j"`
	JMinus1 []MetierRow `json:"jMinus1"`
}

// Empty reports whether neither period carries rows.
func (d *MetierDetails) Empty() bool {
	return d == nil || (len(d.J) == 0 && len(d.JMinus1) == 0)
}

type ConsumptionSection struct {
	Title                  string                 `json:"title"`
	ConsumptionTableHTML   string                 `json:"consumption_table_html"`
	AnalysisText           string                 `json:"analysis_text,omitempty"`
	Variations             *ConsumptionVariations `json:"variations,omitempty"`
	SignificantGroups      []string               `json:"significant_groups,omitempty"`
	MetierDetails          *MetierDetails         `json:"metier_details,omitempty"`
	MetierDetailedAnalysis string                 `json:"metier_detailed_analysis,omitempty"`
	Error                  string                 `json:"error,omitempty"`
}

type AnalyzeByDateRequest struct {
	Date string `json:"date"`
}

type ContextStatus struct {
	ContextReady bool `json:"context_ready"`
}

type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse covers both FastAPI style {"detail": ...} and {"message": ...} bodies.
type ErrorResponse struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}
