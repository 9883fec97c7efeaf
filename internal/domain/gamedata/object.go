package gamedata

// ObjectID is the dense, zero-based identity of a game object. IDs are
// assigned once when the database is built and never reused; two objects are
// the same object iff their IDs are equal.
type ObjectID int32

// NoObject marks the absence of an object reference.
const NoObject ObjectID = -1

// Kind discriminates the object categories stored in the database.
type Kind uint8

const (
	KindGood Kind = iota
	KindRecipe
	KindTechnology
	KindEntity
	KindQuality
)

func (k Kind) String() string {
	switch k {
	case KindGood:
		return "good"
	case KindRecipe:
		return "recipe"
	case KindTechnology:
		return "technology"
	case KindEntity:
		return "entity"
	case KindQuality:
		return "quality"
	}
	return "unknown"
}

// ParseKind maps a kind name back to its Kind value.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "good":
		return KindGood, true
	case "recipe":
		return KindRecipe, true
	case "technology":
		return KindTechnology, true
	case "entity":
		return KindEntity, true
	case "quality":
		return KindQuality, true
	}
	return 0, false
}

// ObjectInfo carries the identity fields shared by every object kind. It is
// embedded in the concrete object types and is immutable after the database
// is built.
type ObjectInfo struct {
	ID   ObjectID
	Name string
	Kind Kind

	// Cost is a precomputed scalar used to weight solver objectives and
	// infeasibility diagnosis toward cheap explanations.
	Cost float64
}

// Object is implemented by every concrete object type in the database.
type Object interface {
	Info() *ObjectInfo
}

func (o *ObjectInfo) Info() *ObjectInfo { return o }
