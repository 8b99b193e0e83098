package domain

// Fare prices the undirected segment between two stations.
type Fare struct {
	From  string `json:"from" db:"from_station" validate:"required"`
	To    string `json:"to" db:"to_station" validate:"required"`
	Price int    `json:"price" db:"price" validate:"gt=0"`
}

func (f Fare) IsValid() bool {
	return f.From != "" && f.To != "" && f.Price > 0
}

// Normalized returns the fare with endpoints in canonical order, the
// lexicographically smaller code first. Stored fares are always
// normalized so each physical segment has exactly one entry.
func (f Fare) Normalized() Fare {
	if f.From <= f.To {
		return f
	}
	return Fare{From: f.To, To: f.From, Price: f.Price}
}

// Key returns the canonical storage key for the fare's segment.
func (f Fare) Key() string {
	return FareKey(f.From, f.To)
}

// FareKey builds the direction-insensitive key for a station pair.
func FareKey(a, b string) string {
	if a <= b {
		return a + "-" + b
	}
	return b + "-" + a
}

// Touches reports whether the fare references the given station.
func (f Fare) Touches(code string) bool {
	return f.From == code || f.To == code
}
