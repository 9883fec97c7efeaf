package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// SharedGameDB holds the parsed shared game definition for feature tests.
// The object database is immutable after loading, so scenarios can share it.
var SharedGameDB *gamedata.Database

// InitializeSharedGameDB loads the shared definition once for the BDD suite.
func InitializeSharedGameDB() error {
	dir, err := os.MkdirTemp("", "beltplan-bdd-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "definition.json")
	if err := os.WriteFile(path, []byte(GameDefinitionJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write game definition: %w", err)
	}

	db, err := dataload.NewLoader().Load(path)
	if err != nil {
		return fmt.Errorf("failed to load game definition: %w", err)
	}

	SharedGameDB = db
	return nil
}
