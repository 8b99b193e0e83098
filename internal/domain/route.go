package domain

// Route is the result of a cheapest-path query. It is never persisted.
type Route struct {
	Start string `json:"start"`
	End   string `json:"end"`
	// StationPath lists the station codes traversed, endpoints included.
	StationPath []string `json:"station_path"`
	// LinePath lists the line id actually used for each priced hop.
	// Zero-cost transfer hops carry no line and are not represented.
	LinePath []string `json:"line_path"`
	// HopStations indexes StationPath at the start of each priced hop,
	// aligned with LinePath. Transfer hops make the two drift apart.
	HopStations   []int `json:"hop_stations,omitempty"`
	TotalPrice    int   `json:"total_price"`
	TransferCount int   `json:"transfer_count"`
}

// StationCount is the number of stations traversed, excluding the start.
func (r *Route) StationCount() int {
	if len(r.StationPath) == 0 {
		return 0
	}
	return len(r.StationPath) - 1
}

// TransferCountOf counts how many times consecutive entries of a line
// path differ. A single line throughout yields 0.
func TransferCountOf(linePath []string) int {
	if len(linePath) <= 1 {
		return 0
	}
	transfers := 0
	current := linePath[0]
	for _, id := range linePath[1:] {
		if id != current {
			transfers++
			current = id
		}
	}
	return transfers
}

// TransferPoints returns the station codes at which the line changes:
// the station where the first hop of each new line starts.
func (r *Route) TransferPoints() []string {
	points := make([]string, 0)
	if len(r.LinePath) <= 1 {
		return points
	}
	current := r.LinePath[0]
	for i := 1; i < len(r.LinePath); i++ {
		if r.LinePath[i] != current {
			idx := i
			if i < len(r.HopStations) {
				idx = r.HopStations[i]
			}
			if idx < len(r.StationPath) {
				points = append(points, r.StationPath[idx])
			}
			current = r.LinePath[i]
		}
	}
	return points
}
