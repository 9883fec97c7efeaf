package persistence

import (
	"time"
)

// ProjectModel represents the projects table. Settings are stored as JSON
// text so the schema never chases the settings surface.
type ProjectModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null;index"`
	Settings  string    `gorm:"column:settings;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

// PageModel represents the pages table. Content holds the page's serialized
// production table as JSON text; Position keeps the user's page order.
type PageModel struct {
	ID        string        `gorm:"column:id;primaryKey"`
	ProjectID string        `gorm:"column:project_id;not null;index"`
	Project   *ProjectModel `gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string        `gorm:"column:name;not null"`
	Position  int           `gorm:"column:position;not null;default:0"`
	Content   string        `gorm:"column:content;type:text;not null"`
	UpdatedAt time.Time     `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (PageModel) TableName() string {
	return "pages"
}
