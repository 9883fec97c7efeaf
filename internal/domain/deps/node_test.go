package deps_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factorlab/beltplan-go/internal/domain/deps"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

func TestListNode_DropsDuplicateMembers(t *testing.T) {
	// Arrange & Act
	node := deps.ListNode(deps.TagFuel, 3, 5, 3)

	// Assert
	assert.Equal(t, []gamedata.ObjectID{3, 5}, node.Flatten())
}

func TestNode_AnyOfListIsSatisfiedByOneMember(t *testing.T) {
	// Arrange
	node := deps.ListNode(deps.TagFuel, 3, 5)
	onlyFive := func(id gamedata.ObjectID) bool { return id == 5 }
	nothing := func(gamedata.ObjectID) bool { return false }

	// Act & Assert
	assert.True(t, node.IsAccessible(onlyFive))
	assert.False(t, node.IsAccessible(nothing))
}

func TestNode_AllOfListNeedsEveryMember(t *testing.T) {
	// Arrange
	node := deps.ListNode(deps.TagIngredient, 3, 5)
	onlyFive := func(id gamedata.ObjectID) bool { return id == 5 }
	everything := func(gamedata.ObjectID) bool { return true }

	// Act & Assert
	assert.False(t, node.IsAccessible(onlyFive))
	assert.True(t, node.IsAccessible(everything))
}

func TestNode_EmptyListsFollowTheirMode(t *testing.T) {
	// Arrange - an empty all-of is vacuous, an empty any-of is unsatisfiable
	allOf := deps.ListNode(deps.TagIngredient)
	anyOf := deps.ListNode(deps.TagFuel)
	nothing := func(gamedata.ObjectID) bool { return false }

	// Act & Assert
	assert.True(t, allOf.IsAccessible(nothing))
	assert.False(t, anyOf.IsAccessible(nothing))
}

func TestAnd_FlattensAndDeduplicatesChildren(t *testing.T) {
	// Arrange
	ingredients := deps.ListNode(deps.TagIngredient, 1, 2)
	crafters := deps.ListNode(deps.TagCraftingEntity, 3)
	unlock := deps.ListNode(deps.TagTechnologyUnlock, 4)

	// Act
	nested := deps.And(deps.And(ingredients, crafters), unlock, crafters)
	flat := deps.And(ingredients, crafters, unlock)

	// Assert
	assert.True(t, nested.Equal(flat))
}

func TestAnd_CollapsesToALoneChild(t *testing.T) {
	// Arrange
	fuel := deps.ListNode(deps.TagFuel, 1, 2)

	// Act & Assert
	assert.Same(t, fuel, deps.And(fuel))
	assert.Same(t, fuel, deps.Or(fuel, fuel))
	assert.Panics(t, func() { deps.And() })
}

func TestNode_AutomationAcceptsAccessibleOneTimeInvestments(t *testing.T) {
	// Arrange - the crafter is accessible but cannot itself be automated
	crafters := deps.ListNode(deps.TagCraftingEntity, 7)
	ingredients := deps.ListNode(deps.TagIngredient, 7)
	automatable := func(gamedata.ObjectID) bool { return false }
	accessible := func(id gamedata.ObjectID) bool { return id == 7 }

	// Act & Assert
	assert.True(t, crafters.IsAutomatable(automatable, accessible))
	assert.False(t, ingredients.IsAutomatable(automatable, accessible))
}

func TestNode_AggregateBitsUnionsAllOfAndMinimizesAnyOf(t *testing.T) {
	// Arrange
	masks := map[gamedata.ObjectID]uint64{1: 0b0010, 2: 0b0110, 3: 0b0100}
	maskOf := func(id gamedata.ObjectID) uint64 { return masks[id] }
	tree := deps.And(
		deps.ListNode(deps.TagIngredient, 1),
		deps.Or(deps.ListNode(deps.TagFuel, 2), deps.ListNode(deps.TagFuel, 3)),
	)

	// Act
	bits := tree.AggregateBits(maskOf)

	// Assert - the cheaper fuel alternative wins, then unions with the ingredient
	assert.Equal(t, uint64(0b0110), bits)
}

func TestFlags_CategorizeTheirRequirement(t *testing.T) {
	// Arrange
	cases := map[string]deps.Flags{
		"ingredient":              deps.TagIngredient,
		"ingredient variant":      deps.TagIngredientVariant,
		"crafting entity":         deps.TagCraftingEntity,
		"source entity":           deps.TagSourceEntity,
		"fuel":                    deps.TagFuel,
		"technology unlock":       deps.TagTechnologyUnlock,
		"technology prerequisite": deps.TagTechnologyPrerequisites,
		"research trigger":        deps.TagResearchTrigger,
		"item to place":           deps.TagItemToPlace,
		"source":                  deps.TagSource,
	}

	// Act & Assert
	for want, flags := range cases {
		assert.Equal(t, want, flags.Category())
	}
	assert.True(t, deps.TagIngredient.RequiresAll())
	assert.False(t, deps.TagFuel.RequiresAll())
	assert.True(t, deps.TagCraftingEntity.IsOneTimeInvestment())
	assert.False(t, deps.TagIngredient.IsOneTimeInvestment())
}

type walkRecorder struct {
	events []string
}

func (w *walkRecorder) VisitList(flags deps.Flags, ids []gamedata.ObjectID) {
	w.events = append(w.events, fmt.Sprintf("%s[%d]", flags.Category(), len(ids)))
}

func (w *walkRecorder) EnterGroup(op deps.GroupOp) {
	if op == deps.GroupAll {
		w.events = append(w.events, "all(")
		return
	}
	w.events = append(w.events, "any(")
}

func (w *walkRecorder) LeaveGroup(deps.GroupOp) {
	w.events = append(w.events, ")")
}

func TestNode_WalkMirrorsTheBooleanStructure(t *testing.T) {
	// Arrange
	tree := deps.And(
		deps.ListNode(deps.TagIngredient, 1, 2),
		deps.Or(deps.ListNode(deps.TagFuel, 3), deps.ListNode(deps.TagFuel, 4)),
	)
	recorder := &walkRecorder{}

	// Act
	tree.Walk(recorder)

	// Assert
	expected := []string{"all(", "ingredient[2]", "any(", "fuel[1]", "fuel[1]", ")", ")"}
	require.Equal(t, expected, recorder.events)
}
