package domain

// RegionConstants are the grid figures injected into every impact estimate
type RegionConstants struct {
	KWhPerGB   float64
	CO2GPerKWh float64
}

// Impact is the sustainability estimate for one asset
type Impact struct {
	KWh   float64
	CO2g  float64
	Score int
}
