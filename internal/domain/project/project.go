package project

import (
	"github.com/google/uuid"

	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// Project is one planning workspace: settings shared by all pages plus the
// pages themselves. Every open project also owns one milestone engine
// instance, wired up by the application layer.
type Project struct {
	ID       uuid.UUID
	Name     string
	Settings Settings
	Pages    []*Page

	history *History
}

// Page is one named production table with its own solve lifecycle.
type Page struct {
	ID    uuid.UUID
	Name  string
	Table *production.ProductionTable

	// LastSolveError holds the diagnostic string of the last failed solve,
	// empty after a successful one.
	LastSolveError string
}

// New creates an empty project with default settings and undo history.
func New(name string) *Project {
	return &Project{
		ID:       uuid.New(),
		Name:     name,
		Settings: NewSettings(),
		history:  NewHistory(DefaultHistoryDepth),
	}
}

// AddPage creates a named page with an empty root table.
func (p *Project) AddPage(name string) *Page {
	page := &Page{
		ID:    uuid.New(),
		Name:  name,
		Table: production.NewRootTable(),
	}
	p.Pages = append(p.Pages, page)
	return page
}

// RemovePage removes the page with the given id and reports whether it
// existed.
func (p *Project) RemovePage(id uuid.UUID) bool {
	for i, page := range p.Pages {
		if page.ID == id {
			p.Pages = append(p.Pages[:i], p.Pages[i+1:]...)
			return true
		}
	}
	return false
}

// PageByID finds a page by id.
func (p *Project) PageByID(id uuid.UUID) (*Page, bool) {
	for _, page := range p.Pages {
		if page.ID == id {
			return page, true
		}
	}
	return nil, false
}

// PageByName finds a page by name, first match wins.
func (p *Project) PageByName(name string) (*Page, bool) {
	for _, page := range p.Pages {
		if page.Name == name {
			return page, true
		}
	}
	return nil, false
}
