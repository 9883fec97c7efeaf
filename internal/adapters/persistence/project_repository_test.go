package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/adapters/persistence"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/test/helpers"
)

func sampleProjectData(name string) *project.ProjectData {
	return &project.ProjectData{
		ID:   uuid.NewString(),
		Name: name,
		Settings: project.SettingsData{
			AutoSortMilestones: true,
			Milestones:         []project.ObjectRef{{Kind: "technology", Name: "automation"}},
			MiningProductivity: 0.1,
			TechnologyLevels:   map[string]int{"automation": 2},
		},
		Pages: []project.PageData{
			{
				ID:   uuid.NewString(),
				Name: "Smelting",
				Table: project.TableData{
					Rows: []project.RowData{{
						Recipe:         project.ObjectRef{Kind: "recipe", Name: "iron-plate"},
						Entity:         "stone-furnace",
						FixedMode:      "buildings",
						FixedBuildings: 4,
					}},
					Links: []project.LinkData{{Good: "iron-plate", Amount: 10, Algorithm: "match"}},
				},
			},
			{ID: uuid.NewString(), Name: "Science"},
		},
	}
}

func TestGormProjectRepository_SaveAndFindByID(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	data := sampleProjectData("Iron Works")

	// Act
	require.NoError(t, repo.Save(context.Background(), data))
	loaded, err := repo.FindByID(context.Background(), data.ID)

	// Assert - the snapshot round-trips through the store unchanged
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestGormProjectRepository_SaveUpsertsAndPrunesPages(t *testing.T) {
	// Arrange - store an initial two-page revision
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	data := sampleProjectData("Iron Works")
	require.NoError(t, repo.Save(context.Background(), data))

	// Act - rename the project, drop a page and add a new one
	data.Name = "Steel Works"
	data.Pages = []project.PageData{
		data.Pages[0],
		{ID: uuid.NewString(), Name: "Oil"},
	}
	require.NoError(t, repo.Save(context.Background(), data))
	loaded, err := repo.FindByID(context.Background(), data.ID)

	// Assert - the second save replaced the first, page set included
	require.NoError(t, err)
	assert.Equal(t, "Steel Works", loaded.Name)
	require.Len(t, loaded.Pages, 2)
	assert.Equal(t, "Smelting", loaded.Pages[0].Name)
	assert.Equal(t, "Oil", loaded.Pages[1].Name)
}

func TestGormProjectRepository_SaveWithoutPagesPrunesThemAll(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	data := sampleProjectData("Iron Works")
	require.NoError(t, repo.Save(context.Background(), data))

	// Act
	data.Pages = nil
	require.NoError(t, repo.Save(context.Background(), data))
	loaded, err := repo.FindByID(context.Background(), data.ID)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, loaded.Pages)
}

func TestGormProjectRepository_FindByName(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	iron := sampleProjectData("Iron Works")
	copper := sampleProjectData("Copper Works")
	require.NoError(t, repo.Save(context.Background(), iron))
	require.NoError(t, repo.Save(context.Background(), copper))

	// Act
	loaded, err := repo.FindByName(context.Background(), "Copper Works")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, copper.ID, loaded.ID)

	// Act & Assert - unknown names are reported as missing
	_, err = repo.FindByName(context.Background(), "Ghost Works")
	assert.ErrorContains(t, err, `project "Ghost Works" not found`)
}

func TestGormProjectRepository_FindByIDReportsMissingProjects(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))

	// Act
	_, err := repo.FindByID(context.Background(), uuid.NewString())

	// Assert
	assert.ErrorContains(t, err, "not found")
}

func TestGormProjectRepository_ListAllOrdersByName(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	beta := sampleProjectData("Beta Base")
	alpha := sampleProjectData("Alpha Base")
	alpha.Pages = alpha.Pages[:1]
	require.NoError(t, repo.Save(context.Background(), beta))
	require.NoError(t, repo.Save(context.Background(), alpha))

	// Act
	summaries, err := repo.ListAll(context.Background())

	// Assert - alphabetical order with per-project page counts
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Alpha Base", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].Pages)
	assert.Equal(t, "Beta Base", summaries[1].Name)
	assert.Equal(t, 2, summaries[1].Pages)
	assert.NotEmpty(t, summaries[0].UpdatedAt)
}

func TestGormProjectRepository_DeleteRemovesProjectAndPages(t *testing.T) {
	// Arrange
	repo := persistence.NewGormProjectRepository(helpers.NewTestDB(t))
	data := sampleProjectData("Iron Works")
	require.NoError(t, repo.Save(context.Background(), data))

	// Act
	require.NoError(t, repo.Delete(context.Background(), data.ID))

	// Assert - neither the project nor its pages remain
	_, err := repo.FindByID(context.Background(), data.ID)
	assert.ErrorContains(t, err, "not found")
	summaries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)

	// Act & Assert - deleting again reports the missing project
	assert.ErrorContains(t, repo.Delete(context.Background(), data.ID), "not found")
}
