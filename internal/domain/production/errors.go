package production

import "fmt"

// DuplicateLinkError reports an attempt to link a (good, quality) pair that
// is already linked at the same table level.
type DuplicateLinkError struct {
	Good    string
	Quality string
}

func (e *DuplicateLinkError) Error() string {
	return fmt.Sprintf("link for %s (%s) already exists at this level", e.Good, e.Quality)
}
