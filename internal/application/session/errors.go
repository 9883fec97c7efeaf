package session

import "fmt"

// PageNotFoundError reports a page reference that matches neither a page id
// nor a page name in the open project.
type PageNotFoundError struct {
	Ref string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.Ref)
}

// RowNotFoundError reports a row path that walks outside the page's tables.
type RowNotFoundError struct {
	Path []int
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("no row at path %v", e.Path)
}

// ObjectNotFoundError reports a database lookup by kind and name that found
// nothing.
type ObjectNotFoundError struct {
	Kind string
	Name string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in game data", e.Kind, e.Name)
}

// LinkNotFoundError reports a missing link for a good on a table.
type LinkNotFoundError struct {
	Good string
}

func (e *LinkNotFoundError) Error() string {
	return fmt.Sprintf("no link for %q on this table", e.Good)
}
