package project

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// ProjectData is the serializable form of a project. It captures writable
// state only: objects are referenced by kind and name so a project file
// survives database reloads, and everything the solver derives is omitted.
type ProjectData struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Settings SettingsData `json:"settings"`
	Pages    []PageData   `json:"pages,omitempty"`
}

// SettingsData is the serializable form of Settings.
type SettingsData struct {
	Milestones         []ObjectRef `json:"milestones,omitempty"`
	AutoSortMilestones bool        `json:"autoSortMilestones"`

	MarkedAccessible   []ObjectRef `json:"markedAccessible,omitempty"`
	MarkedInaccessible []ObjectRef `json:"markedInaccessible,omitempty"`
	UnlockedMilestones []ObjectRef `json:"unlockedMilestones,omitempty"`

	MiningProductivity   float64        `json:"miningProductivity,omitempty"`
	ResearchSpeed        float64        `json:"researchSpeed,omitempty"`
	ResearchProductivity float64        `json:"researchProductivity,omitempty"`
	TechnologyLevels     map[string]int `json:"technologyLevels,omitempty"`

	ReactorSizeX int `json:"reactorSizeX,omitempty"`
	ReactorSizeY int `json:"reactorSizeY,omitempty"`
}

// PageData is the serializable form of a page.
type PageData struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Table TableData `json:"table"`
}

// TableData is the serializable form of a production table. Implicit links
// are solver output and not stored.
type TableData struct {
	Rows  []RowData  `json:"rows,omitempty"`
	Links []LinkData `json:"links,omitempty"`
}

// RowData is the serializable form of a recipe row.
type RowData struct {
	Recipe        ObjectRef           `json:"recipe"`
	Quality       string              `json:"quality,omitempty"`
	Entity        string              `json:"entity,omitempty"`
	EntityQuality string              `json:"entityQuality,omitempty"`
	Fuel          string              `json:"fuel,omitempty"`
	FuelQuality   string              `json:"fuelQuality,omitempty"`
	Modules       *ModuleTemplateData `json:"modules,omitempty"`

	Disabled bool `json:"disabled,omitempty"`

	FixedBuildings float64 `json:"fixedBuildings,omitempty"`
	FixedMode      string  `json:"fixedMode,omitempty"`
	FixedGood      string  `json:"fixedGood,omitempty"`
	BuiltBuildings float64 `json:"builtBuildings,omitempty"`

	SubTable *TableData `json:"subTable,omitempty"`
}

// LinkData is the serializable form of an explicit production link.
type LinkData struct {
	Good      string  `json:"good"`
	Quality   string  `json:"quality,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Algorithm string  `json:"algorithm,omitempty"`
}

// ModuleTemplateData is the serializable form of a module template.
type ModuleTemplateData struct {
	Modules []ModuleEntryData `json:"modules,omitempty"`
	Filler  string            `json:"filler,omitempty"`
	Beacon  *BeaconData       `json:"beacon,omitempty"`
}

// ModuleEntryData is one serialized module stack.
type ModuleEntryData struct {
	Module  string `json:"module"`
	Quality string `json:"quality,omitempty"`
	Count   int    `json:"count"`
}

// BeaconData is the serialized beacon configuration of a row.
type BeaconData struct {
	Entity  string            `json:"entity"`
	Count   int               `json:"count"`
	Modules []ModuleEntryData `json:"modules,omitempty"`
}

// ObjectRef names a database object by kind and name.
type ObjectRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

func refOf(db *gamedata.Database, id gamedata.ObjectID) ObjectRef {
	info := db.Get(id).Info()
	return ObjectRef{Kind: info.Kind.String(), Name: info.Name}
}

func refsOf(db *gamedata.Database, ids []gamedata.ObjectID) []ObjectRef {
	if len(ids) == 0 {
		return nil
	}
	out := make([]ObjectRef, len(ids))
	for i, id := range ids {
		out[i] = refOf(db, id)
	}
	return out
}

// Snapshot captures the project's writable state.
func (p *Project) Snapshot(db *gamedata.Database) ProjectData {
	data := ProjectData{
		ID:       p.ID.String(),
		Name:     p.Name,
		Settings: snapshotSettings(db, &p.Settings),
	}
	for _, page := range p.Pages {
		data.Pages = append(data.Pages, PageData{
			ID:    page.ID.String(),
			Name:  page.Name,
			Table: snapshotTable(page.Table),
		})
	}
	return data
}

func snapshotSettings(db *gamedata.Database, s *Settings) SettingsData {
	data := SettingsData{
		Milestones:           refsOf(db, s.Milestones),
		AutoSortMilestones:   s.AutoSortMilestones,
		MarkedAccessible:     refsOf(db, setToList(s.MarkedAccessible)),
		MarkedInaccessible:   refsOf(db, setToList(s.MarkedInaccessible)),
		UnlockedMilestones:   refsOf(db, setToList(s.UnlockedMilestones)),
		MiningProductivity:   s.MiningProductivity,
		ResearchSpeed:        s.ResearchSpeed,
		ResearchProductivity: s.ResearchProductivity,
		ReactorSizeX:         s.ReactorSizeX,
		ReactorSizeY:         s.ReactorSizeY,
	}
	for id, level := range s.TechnologyLevels {
		if data.TechnologyLevels == nil {
			data.TechnologyLevels = map[string]int{}
		}
		data.TechnologyLevels[db.Get(id).Info().Name] = level
	}
	return data
}

func snapshotTable(t *production.ProductionTable) TableData {
	var data TableData
	for _, row := range t.Rows {
		data.Rows = append(data.Rows, snapshotRow(row))
	}
	for _, link := range t.Links {
		ld := LinkData{
			Good:      link.Good.Name,
			Amount:    link.Amount,
			Algorithm: link.Algorithm.String(),
		}
		if link.Quality != nil && !link.Quality.IsNormal() {
			ld.Quality = link.Quality.Name
		}
		data.Links = append(data.Links, ld)
	}
	return data
}

func snapshotRow(row *production.RecipeRow) RowData {
	data := RowData{
		Recipe:         ObjectRef{Kind: gamedata.KindRecipe.String(), Name: row.Recipe.Name},
		Disabled:       !row.Enabled,
		FixedBuildings: row.FixedBuildings,
		FixedMode:      row.FixedMode.String(),
		BuiltBuildings: row.BuiltBuildings,
	}
	if row.Technology != nil {
		data.Recipe = ObjectRef{Kind: gamedata.KindTechnology.String(), Name: row.Technology.Name}
	}
	if row.Quality != nil && !row.Quality.IsNormal() {
		data.Quality = row.Quality.Name
	}
	if row.Entity != nil {
		data.Entity = row.Entity.Name
	}
	if row.EntityQuality != nil && !row.EntityQuality.IsNormal() {
		data.EntityQuality = row.EntityQuality.Name
	}
	if row.Fuel != nil {
		data.Fuel = row.Fuel.Name
	}
	if row.FuelQuality != nil && !row.FuelQuality.IsNormal() {
		data.FuelQuality = row.FuelQuality.Name
	}
	if row.FixedGood != nil {
		data.FixedGood = row.FixedGood.Name
	}
	if !row.Modules.IsEmpty() {
		data.Modules = snapshotModules(row.Modules)
	}
	if row.SubTable != nil {
		sub := snapshotTable(row.SubTable)
		data.SubTable = &sub
	}
	return data
}

func snapshotModules(m *production.ModuleTemplate) *ModuleTemplateData {
	data := &ModuleTemplateData{}
	for _, entry := range m.Modules {
		data.Modules = append(data.Modules, snapshotModuleEntry(entry))
	}
	if m.FillerModule != nil {
		data.Filler = m.FillerModule.Name
	}
	if m.Beacon != nil {
		beacon := &BeaconData{Entity: m.Beacon.Entity.Name, Count: m.Beacon.Count}
		for _, entry := range m.Beacon.Modules {
			beacon.Modules = append(beacon.Modules, snapshotModuleEntry(entry))
		}
		data.Beacon = beacon
	}
	return data
}

func snapshotModuleEntry(entry production.ModuleEntry) ModuleEntryData {
	data := ModuleEntryData{Module: entry.Module.Name, Count: entry.Count}
	if entry.Quality != nil && !entry.Quality.IsNormal() {
		data.Quality = entry.Quality.Name
	}
	return data
}

// Restore builds a fresh project from serialized data, resolving every
// object reference against the database.
func Restore(data ProjectData, db *gamedata.Database) (*Project, error) {
	p := &Project{
		Name:    data.Name,
		history: NewHistory(DefaultHistoryDepth),
	}
	if data.ID != "" {
		id, err := uuid.Parse(data.ID)
		if err != nil {
			return nil, fmt.Errorf("restoring project %q: %w", data.Name, err)
		}
		p.ID = id
	} else {
		p.ID = uuid.New()
	}
	if err := p.restoreState(data, db); err != nil {
		return nil, err
	}
	return p, nil
}

// restoreState replaces the project's settings and pages from serialized
// data, leaving identity and history untouched.
func (p *Project) restoreState(data ProjectData, db *gamedata.Database) error {
	settings, err := restoreSettings(data.Settings, db)
	if err != nil {
		return fmt.Errorf("restoring project %q: %w", data.Name, err)
	}
	pages := make([]*Page, 0, len(data.Pages))
	for _, pd := range data.Pages {
		page, err := restorePage(pd, db)
		if err != nil {
			return fmt.Errorf("restoring project %q: %w", data.Name, err)
		}
		pages = append(pages, page)
	}
	p.Name = data.Name
	p.Settings = settings
	p.Pages = pages
	return nil
}

func restoreSettings(data SettingsData, db *gamedata.Database) (Settings, error) {
	s := NewSettings()
	s.AutoSortMilestones = data.AutoSortMilestones
	s.MiningProductivity = data.MiningProductivity
	s.ResearchSpeed = data.ResearchSpeed
	s.ResearchProductivity = data.ResearchProductivity
	if data.ReactorSizeX > 0 {
		s.ReactorSizeX = data.ReactorSizeX
	}
	if data.ReactorSizeY > 0 {
		s.ReactorSizeY = data.ReactorSizeY
	}
	for _, ref := range data.Milestones {
		obj, err := resolveRef(db, ref)
		if err != nil {
			return s, err
		}
		s.Milestones = append(s.Milestones, obj.Info().ID)
	}
	if err := restoreSet(db, data.MarkedAccessible, s.MarkedAccessible); err != nil {
		return s, err
	}
	if err := restoreSet(db, data.MarkedInaccessible, s.MarkedInaccessible); err != nil {
		return s, err
	}
	if err := restoreSet(db, data.UnlockedMilestones, s.UnlockedMilestones); err != nil {
		return s, err
	}
	for name, level := range data.TechnologyLevels {
		obj, err := resolveRef(db, ObjectRef{Kind: gamedata.KindTechnology.String(), Name: name})
		if err != nil {
			return s, err
		}
		s.TechnologyLevels[obj.Info().ID] = level
	}
	return s, nil
}

func restoreSet(db *gamedata.Database, refs []ObjectRef, set map[gamedata.ObjectID]bool) error {
	for _, ref := range refs {
		obj, err := resolveRef(db, ref)
		if err != nil {
			return err
		}
		set[obj.Info().ID] = true
	}
	return nil
}

func restorePage(data PageData, db *gamedata.Database) (*Page, error) {
	page := &Page{Name: data.Name, Table: production.NewRootTable()}
	if data.ID != "" {
		id, err := uuid.Parse(data.ID)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", data.Name, err)
		}
		page.ID = id
	} else {
		page.ID = uuid.New()
	}
	if err := restoreTable(data.Table, page.Table, db); err != nil {
		return nil, fmt.Errorf("page %q: %w", data.Name, err)
	}
	return page, nil
}

func restoreTable(data TableData, table *production.ProductionTable, db *gamedata.Database) error {
	for _, rd := range data.Rows {
		row, err := restoreRow(rd, db)
		if err != nil {
			return err
		}
		table.AddRow(row)
		if rd.SubTable != nil {
			if err := restoreTable(*rd.SubTable, row.AttachSubTable(), db); err != nil {
				return err
			}
		}
	}
	for _, ld := range data.Links {
		good, err := resolveGood(db, ld.Good)
		if err != nil {
			return err
		}
		quality, err := resolveQuality(db, ld.Quality)
		if err != nil {
			return err
		}
		if _, err := table.AddLink(good, quality, ld.Amount, production.ParseLinkAlgorithm(ld.Algorithm)); err != nil {
			return err
		}
	}
	return nil
}

func restoreRow(data RowData, db *gamedata.Database) (*production.RecipeRow, error) {
	quality, err := resolveQuality(db, data.Quality)
	if err != nil {
		return nil, err
	}
	obj, err := resolveRef(db, data.Recipe)
	if err != nil {
		return nil, err
	}
	var row *production.RecipeRow
	switch typed := obj.(type) {
	case *gamedata.Recipe:
		row = production.NewRecipeRow(typed, quality)
	case *gamedata.Technology:
		row = production.NewTechnologyRow(typed, quality)
	default:
		return nil, fmt.Errorf("row object %s %q is not a recipe", data.Recipe.Kind, data.Recipe.Name)
	}
	row.Enabled = !data.Disabled
	row.FixedBuildings = data.FixedBuildings
	row.FixedMode = production.ParseFixedMode(data.FixedMode)
	row.BuiltBuildings = data.BuiltBuildings
	if data.Entity != "" {
		entity, err := resolveEntity(db, data.Entity)
		if err != nil {
			return nil, err
		}
		row.Entity = entity
	}
	if row.EntityQuality, err = resolveQuality(db, data.EntityQuality); err != nil {
		return nil, err
	}
	if data.Fuel != "" {
		if row.Fuel, err = resolveGood(db, data.Fuel); err != nil {
			return nil, err
		}
	}
	if row.FuelQuality, err = resolveQuality(db, data.FuelQuality); err != nil {
		return nil, err
	}
	if data.FixedGood != "" {
		if row.FixedGood, err = resolveGood(db, data.FixedGood); err != nil {
			return nil, err
		}
	}
	if data.Modules != nil {
		if row.Modules, err = restoreModules(data.Modules, db); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func restoreModules(data *ModuleTemplateData, db *gamedata.Database) (*production.ModuleTemplate, error) {
	template := &production.ModuleTemplate{}
	for _, ed := range data.Modules {
		entry, err := restoreModuleEntry(ed, db)
		if err != nil {
			return nil, err
		}
		template.Modules = append(template.Modules, entry)
	}
	if data.Filler != "" {
		filler, err := resolveGood(db, data.Filler)
		if err != nil {
			return nil, err
		}
		template.FillerModule = filler
	}
	if data.Beacon != nil {
		entity, err := resolveEntity(db, data.Beacon.Entity)
		if err != nil {
			return nil, err
		}
		beacon := &production.BeaconConfig{Entity: entity, Count: data.Beacon.Count}
		for _, ed := range data.Beacon.Modules {
			entry, err := restoreModuleEntry(ed, db)
			if err != nil {
				return nil, err
			}
			beacon.Modules = append(beacon.Modules, entry)
		}
		template.Beacon = beacon
	}
	return template, nil
}

func restoreModuleEntry(data ModuleEntryData, db *gamedata.Database) (production.ModuleEntry, error) {
	module, err := resolveGood(db, data.Module)
	if err != nil {
		return production.ModuleEntry{}, err
	}
	quality, err := resolveQuality(db, data.Quality)
	if err != nil {
		return production.ModuleEntry{}, err
	}
	return production.ModuleEntry{Module: module, Quality: quality, Count: data.Count}, nil
}

func resolveRef(db *gamedata.Database, ref ObjectRef) (gamedata.Object, error) {
	kind, ok := gamedata.ParseKind(ref.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown object kind %q", ref.Kind)
	}
	obj, ok := db.ByName(kind, ref.Name)
	if !ok {
		return nil, fmt.Errorf("unknown %s %q", ref.Kind, ref.Name)
	}
	return obj, nil
}

func resolveGood(db *gamedata.Database, name string) (*gamedata.Good, error) {
	obj, err := resolveRef(db, ObjectRef{Kind: gamedata.KindGood.String(), Name: name})
	if err != nil {
		return nil, err
	}
	return obj.(*gamedata.Good), nil
}

func resolveEntity(db *gamedata.Database, name string) (*gamedata.Entity, error) {
	obj, err := resolveRef(db, ObjectRef{Kind: gamedata.KindEntity.String(), Name: name})
	if err != nil {
		return nil, err
	}
	return obj.(*gamedata.Entity), nil
}

// resolveQuality maps the empty name to the database's normal tier.
func resolveQuality(db *gamedata.Database, name string) (*gamedata.Quality, error) {
	if name == "" {
		return db.NormalQuality, nil
	}
	obj, err := resolveRef(db, ObjectRef{Kind: gamedata.KindQuality.String(), Name: name})
	if err != nil {
		return nil, err
	}
	return obj.(*gamedata.Quality), nil
}

// RecordUndo snapshots the project before an edit.
func (p *Project) RecordUndo(db *gamedata.Database) {
	p.history.Record(p.Snapshot(db))
}

// Undo restores the state before the last recorded edit. It reports whether
// anything was undone.
func (p *Project) Undo(db *gamedata.Database) (bool, error) {
	snapshot, ok := p.history.Undo(p.Snapshot(db))
	if !ok {
		return false, nil
	}
	return true, p.restoreState(snapshot, db)
}

// Redo reverses the last undo. It reports whether anything was redone.
func (p *Project) Redo(db *gamedata.Database) (bool, error) {
	snapshot, ok := p.history.Redo(p.Snapshot(db))
	if !ok {
		return false, nil
	}
	return true, p.restoreState(snapshot, db)
}

// CanUndo reports whether the project has an undoable edit.
func (p *Project) CanUndo() bool { return p.history.CanUndo() }

// CanRedo reports whether the project has a redoable edit.
func (p *Project) CanRedo() bool { return p.history.CanRedo() }
