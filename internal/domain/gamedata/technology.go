package gamedata

// Technology is researched rather than crafted. It embeds Recipe: research
// time and science-pack ingredients reuse the recipe fields, and the crafters
// list holds the lab entities able to research it.
type Technology struct {
	Recipe

	// Prerequisites lists technologies that must be researched first.
	Prerequisites []ObjectID

	// ResearchTriggerItems, when non-empty, replaces science-pack research:
	// crafting any one of the listed items completes the technology.
	ResearchTriggerItems []ObjectID

	// UnlockedRecipes lists the recipes this technology enables.
	UnlockedRecipes []ObjectID
}

// HasResearchTrigger reports whether the technology completes via a crafting
// trigger instead of research units.
func (t *Technology) HasResearchTrigger() bool {
	return len(t.ResearchTriggerItems) > 0
}
