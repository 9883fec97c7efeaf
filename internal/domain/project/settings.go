package project

import (
	"sort"

	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/milestones"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// Settings holds the per-project knobs the planning engines read: milestone
// selection, accessibility overrides and the global numeric bonuses.
type Settings struct {
	Milestones         []gamedata.ObjectID
	AutoSortMilestones bool

	MarkedAccessible   map[gamedata.ObjectID]bool
	MarkedInaccessible map[gamedata.ObjectID]bool
	UnlockedMilestones map[gamedata.ObjectID]bool

	MiningProductivity   float64
	ResearchSpeed        float64
	ResearchProductivity float64
	TechnologyLevels     map[gamedata.ObjectID]int

	ReactorSizeX int
	ReactorSizeY int
}

// NewSettings returns settings with empty override sets and a 2x2 reactor
// grid.
func NewSettings() Settings {
	return Settings{
		AutoSortMilestones: true,
		MarkedAccessible:   map[gamedata.ObjectID]bool{},
		MarkedInaccessible: map[gamedata.ObjectID]bool{},
		UnlockedMilestones: map[gamedata.ObjectID]bool{},
		TechnologyLevels:   map[gamedata.ObjectID]int{},
		ReactorSizeX:       2,
		ReactorSizeY:       2,
	}
}

// ComputeRequest shapes the settings into one accessibility computation
// input.
func (s *Settings) ComputeRequest() milestones.ComputeRequest {
	return milestones.ComputeRequest{
		Milestones:         append([]gamedata.ObjectID(nil), s.Milestones...),
		AutoSort:           s.AutoSortMilestones,
		MarkedAccessible:   setToList(s.MarkedAccessible),
		MarkedInaccessible: setToList(s.MarkedInaccessible),
		UnlockedMilestones: setToList(s.UnlockedMilestones),
	}
}

// Bonuses shapes the settings into parameter calculator input.
func (s *Settings) Bonuses() production.Bonuses {
	return production.Bonuses{
		MiningProductivity:   s.MiningProductivity,
		ResearchSpeed:        s.ResearchSpeed,
		ResearchProductivity: s.ResearchProductivity,
		TechnologyLevels:     s.TechnologyLevels,
		ReactorSizeX:         s.ReactorSizeX,
		ReactorSizeY:         s.ReactorSizeY,
	}
}

func setToList(set map[gamedata.ObjectID]bool) []gamedata.ObjectID {
	if len(set) == 0 {
		return nil
	}
	out := make([]gamedata.ObjectID, 0, len(set))
	for id, on := range set {
		if on {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
