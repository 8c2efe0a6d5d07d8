package shared

// Page limits offset-based listing
type Page struct {
	Limit  int
	Offset int
}

// MaxPageLimit caps every list endpoint
const MaxPageLimit = 50

// NewPage clamps limit into [1, MaxPageLimit] and offset to >= 0.
// A non-positive limit selects the maximum.
func NewPage(limit, offset int) Page {
	if limit <= 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
