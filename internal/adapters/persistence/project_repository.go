package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// ProjectSummary is one row of a project listing.
type ProjectSummary struct {
	ID        string
	Name      string
	Pages     int
	UpdatedAt string
}

// GormProjectRepository persists project snapshots using GORM.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GORM-based project repository.
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Save upserts the project row and its pages and prunes pages that are no
// longer part of the snapshot, all in one transaction.
func (r *GormProjectRepository) Save(ctx context.Context, data *project.ProjectData) error {
	model, pages, err := projectToModel(data)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "settings", "updated_at"}),
		}).Create(model).Error; err != nil {
			return fmt.Errorf("failed to save project %s: %w", data.Name, err)
		}

		kept := make([]string, 0, len(pages))
		for _, page := range pages {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"project_id", "name", "position", "content", "updated_at"}),
			}).Create(page).Error; err != nil {
				return fmt.Errorf("failed to save page %s: %w", page.Name, err)
			}
			kept = append(kept, page.ID)
		}

		stale := tx.Where("project_id = ?", model.ID)
		if len(kept) > 0 {
			stale = stale.Where("id NOT IN ?", kept)
		}
		if err := stale.Delete(&PageModel{}).Error; err != nil {
			return fmt.Errorf("failed to prune removed pages: %w", err)
		}
		return nil
	})
}

// FindByID loads a project snapshot by its UUID.
func (r *GormProjectRepository) FindByID(ctx context.Context, id string) (*project.ProjectData, error) {
	var model ProjectModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s not found", id)
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return r.loadProject(ctx, &model)
}

// FindByName loads a project snapshot by name.
func (r *GormProjectRepository) FindByName(ctx context.Context, name string) (*project.ProjectData, error) {
	var model ProjectModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %q not found", name)
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return r.loadProject(ctx, &model)
}

// ListAll returns a summary of every stored project, ordered by name.
func (r *GormProjectRepository) ListAll(ctx context.Context) ([]ProjectSummary, error) {
	var models []ProjectModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	type pageCount struct {
		ProjectID string
		N         int
	}
	var counts []pageCount
	if err := r.db.WithContext(ctx).Model(&PageModel{}).
		Select("project_id, count(*) as n").
		Group("project_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	pagesByProject := make(map[string]int, len(counts))
	for _, c := range counts {
		pagesByProject[c.ProjectID] = c.N
	}

	summaries := make([]ProjectSummary, 0, len(models))
	for _, m := range models {
		summaries = append(summaries, ProjectSummary{
			ID:        m.ID,
			Name:      m.Name,
			Pages:     pagesByProject[m.ID],
			UpdatedAt: m.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return summaries, nil
}

// Delete removes a project and its pages.
func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&PageModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete pages: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&ProjectModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("project %s not found", id)
		}
		return nil
	})
}

func (r *GormProjectRepository) loadProject(ctx context.Context, model *ProjectModel) (*project.ProjectData, error) {
	var pageModels []PageModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", model.ID).
		Order("position ASC").
		Find(&pageModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load pages for project %s: %w", model.Name, err)
	}
	return modelToProject(model, pageModels)
}

func projectToModel(data *project.ProjectData) (*ProjectModel, []*PageModel, error) {
	settings, err := json.Marshal(data.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	model := &ProjectModel{
		ID:       data.ID,
		Name:     data.Name,
		Settings: string(settings),
	}
	pages := make([]*PageModel, 0, len(data.Pages))
	for i, page := range data.Pages {
		content, err := json.Marshal(page.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode page %s: %w", page.Name, err)
		}
		pages = append(pages, &PageModel{
			ID:        page.ID,
			ProjectID: data.ID,
			Name:      page.Name,
			Position:  i,
			Content:   string(content),
		})
	}
	return model, pages, nil
}

func modelToProject(model *ProjectModel, pageModels []PageModel) (*project.ProjectData, error) {
	data := &project.ProjectData{
		ID:   model.ID,
		Name: model.Name,
	}
	if err := json.Unmarshal([]byte(model.Settings), &data.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for project %s: %w", model.Name, err)
	}
	for _, pm := range pageModels {
		page := project.PageData{ID: pm.ID, Name: pm.Name}
		if err := json.Unmarshal([]byte(pm.Content), &page.Table); err != nil {
			return nil, fmt.Errorf("failed to decode page %s: %w", pm.Name, err)
		}
		data.Pages = append(data.Pages, page)
	}
	return data, nil
}
