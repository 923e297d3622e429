package consumption

// Window selects the years an aggregate covers
type Window struct {
	all      bool
	year     int
	numYears int
}

// AllYears covers every year in the table
func AllYears() Window {
	return Window{all: true}
}

// YearsBack covers year-numYears through year, both inclusive
func YearsBack(year, numYears int) Window {
	return Window{year: year, numYears: numYears}
}

// Contains reports whether year falls inside the window
func (w Window) Contains(year int) bool {
	if w.all {
		return true
	}
	return year >= w.year-w.numYears && year <= w.year
}
