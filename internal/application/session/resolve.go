package session

import (
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// ResolveCraftable finds a recipe by name, falling back to technologies so
// research rows can be added through the same command.
func (s *Session) ResolveCraftable(name string) (gamedata.Object, error) {
	if o, ok := s.db.ByName(gamedata.KindRecipe, name); ok {
		return o, nil
	}
	if o, ok := s.db.ByName(gamedata.KindTechnology, name); ok {
		return o, nil
	}
	return nil, &ObjectNotFoundError{Kind: "recipe", Name: name}
}

// ResolveGood finds a good by name.
func (s *Session) ResolveGood(name string) (*gamedata.Good, error) {
	o, ok := s.db.ByName(gamedata.KindGood, name)
	if !ok {
		return nil, &ObjectNotFoundError{Kind: "good", Name: name}
	}
	return o.(*gamedata.Good), nil
}

// ResolveEntity finds a crafting entity by name.
func (s *Session) ResolveEntity(name string) (*gamedata.Entity, error) {
	o, ok := s.db.ByName(gamedata.KindEntity, name)
	if !ok {
		return nil, &ObjectNotFoundError{Kind: "entity", Name: name}
	}
	return o.(*gamedata.Entity), nil
}

// ResolveQuality finds a quality tier by name. The empty name means the
// normal tier.
func (s *Session) ResolveQuality(name string) (*gamedata.Quality, error) {
	if name == "" {
		return s.db.NormalQuality, nil
	}
	o, ok := s.db.ByName(gamedata.KindQuality, name)
	if !ok {
		return nil, &ObjectNotFoundError{Kind: "quality", Name: name}
	}
	return o.(*gamedata.Quality), nil
}

// ResolveMilestone finds a milestone candidate by kind and name. Any object
// kind can serve as a milestone.
func (s *Session) ResolveMilestone(kind, name string) (gamedata.Object, error) {
	k, ok := gamedata.ParseKind(kind)
	if !ok {
		return nil, &ObjectNotFoundError{Kind: kind, Name: name}
	}
	o, ok := s.db.ByName(k, name)
	if !ok {
		return nil, &ObjectNotFoundError{Kind: kind, Name: name}
	}
	return o, nil
}
