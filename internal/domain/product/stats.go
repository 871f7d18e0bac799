package product

// Stats summarizes the catalog.
type Stats struct {
	TotalProducts int
	AvgPrice      float64
	AvgRating     float64
	Categories    int
}
