package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsScope narrows an aggregate to one owner (uuid.Nil for all) and a [From, To) window
type AnalyticsScope struct {
	OwnerID uuid.UUID
	From    time.Time
	To      time.Time
}

// AnalyticsSummary is a read-time rollup over complete assets
type AnalyticsSummary struct {
	TotalFiles           int
	TotalSizeBytes       int64
	TotalKWh             float64
	TotalCO2g            float64
	DuplicatesCount      int
	DuplicatesPercentage float64
	KWhSaved             float64
	CO2gSaved            float64
	AverageImpactScore   float64
}

// FileTypeBreakdown aggregates complete assets sharing a verified mime type
type FileTypeBreakdown struct {
	MimeType           string
	Count              int
	TotalSizeBytes     int64
	AverageImpactScore float64
}

// TrendPoint is one day of the impact trend
type TrendPoint struct {
	Date            time.Time
	FilesCount      int
	TotalKWh        float64
	TotalCO2g       float64
	DuplicatesCount int
}
