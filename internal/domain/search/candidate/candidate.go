package candidate

// Candidate is a neighbour returned by the text index.
type Candidate struct {
	id       string
	distance float64
}

// New creates a Candidate. distance is cosine distance in [0, 2].
func New(id string, distance float64) Candidate {
	return Candidate{id: id, distance: distance}
}

// ID returns the product identifier.
func (c Candidate) ID() string { return c.id }

// Distance returns the raw cosine distance.
func (c Candidate) Distance() float64 { return c.distance }

// Similarity returns (1 - distance) × 100. It is not floored at zero.
func (c Candidate) Similarity() float64 { return (1 - c.distance) * 100 }

// MaxSimilarity returns the highest similarity in cs, or 0 when cs is empty.
func MaxSimilarity(cs []Candidate) float64 {
	if len(cs) == 0 {
		return 0
	}
	best := cs[0].Similarity()
	for _, c := range cs[1:] {
		if s := c.Similarity(); s > best {
			best = s
		}
	}
	return best
}
