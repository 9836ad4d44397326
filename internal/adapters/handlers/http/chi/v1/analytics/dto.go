package analytics

import "ecolink/internal/core/domain"

type V1SummaryResponse struct {
	TotalFiles           int     `json:"total_files"`
	TotalSizeBytes       int64   `json:"total_size_bytes"`
	TotalKWh             float64 `json:"total_kwh"`
	TotalCO2g            float64 `json:"total_co2_g"`
	DuplicatesCount      int     `json:"duplicates_count"`
	DuplicatesPercentage float64 `json:"duplicates_percentage"`
	KWhSaved             float64 `json:"kwh_saved"`
	CO2gSaved            float64 `json:"co2_g_saved"`
	AverageImpactScore   float64 `json:"average_impact_score"`
}

func toSummaryResponse(s domain.AnalyticsSummary) V1SummaryResponse {
	return V1SummaryResponse(s)
}

type V1FileTypeResponse struct {
	MimeType           string  `json:"mime_type"`
	Count              int     `json:"count"`
	TotalSizeBytes     int64   `json:"total_size_bytes"`
	AverageImpactScore float64 `json:"average_impact_score"`
}

type V1FileTypesResponse struct {
	FileTypes []V1FileTypeResponse `json:"file_types"`
}

type V1TrendPointResponse struct {
	Date            string  `json:"date"`
	FilesCount      int     `json:"files_count"`
	TotalKWh        float64 `json:"total_kwh"`
	TotalCO2g       float64 `json:"total_co2_g"`
	DuplicatesCount int     `json:"duplicates_count"`
}

type V1TrendResponse struct {
	Points []V1TrendPointResponse `json:"points"`
}
