package domain

type Line struct {
	ID      string `json:"id" db:"id" validate:"required"`
	Name    string `json:"name" db:"name" validate:"required"`
	AltName string `json:"alt_name,omitempty" db:"alt_name"`
	// Color is display-only and never interpreted.
	Color string `json:"color,omitempty" db:"color"`
	// StationCodes is ordered; adjacency in this slice defines the
	// segments used for same-line fare summation.
	StationCodes []string `json:"station_codes" db:"station_codes"`
}

// IsComplete reports whether the line has enough stations to take part
// in routing. Lines with fewer than 2 stations are ignored by the engine.
func (l *Line) IsComplete() bool {
	return len(l.StationCodes) >= 2
}

func (l *Line) ContainsStation(code string) bool {
	return l.StationOrder(code) >= 0
}

// StationOrder returns the 0-based position of a station, or -1.
func (l *Line) StationOrder(code string) int {
	for i, c := range l.StationCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// AddStation appends a station code, ignoring duplicates.
func (l *Line) AddStation(code string) {
	if l.ContainsStation(code) {
		return
	}
	l.StationCodes = append(l.StationCodes, code)
}

// InsertStation inserts at the given index, appending when the index is
// out of range. Duplicates are ignored.
func (l *Line) InsertStation(index int, code string) {
	if l.ContainsStation(code) {
		return
	}
	if index < 0 || index > len(l.StationCodes) {
		l.StationCodes = append(l.StationCodes, code)
		return
	}
	l.StationCodes = append(l.StationCodes, "")
	copy(l.StationCodes[index+1:], l.StationCodes[index:])
	l.StationCodes[index] = code
}

// RemoveStation strips the station from the sequence.
func (l *Line) RemoveStation(code string) bool {
	idx := l.StationOrder(code)
	if idx < 0 {
		return false
	}
	l.StationCodes = append(l.StationCodes[:idx], l.StationCodes[idx+1:]...)
	return true
}

// AdjacentStations returns the previous and next station codes around
// the given one. Either may be empty at the ends of the line; both are
// empty when the station is not on the line.
func (l *Line) AdjacentStations(code string) (prev, next string) {
	idx := l.StationOrder(code)
	if idx < 0 {
		return "", ""
	}
	if idx > 0 {
		prev = l.StationCodes[idx-1]
	}
	if idx < len(l.StationCodes)-1 {
		next = l.StationCodes[idx+1]
	}
	return prev, next
}
