package production

// WarningFlags is the per-row warning bitset. Configuration warnings come
// from the parameter calculator, solve warnings from the solver driver. All
// flags are recomputed from scratch on every solve pass, never merely
// added to, so stale warnings cannot outlive a successful re-solve.
type WarningFlags uint32

const (
	// Configuration warnings.
	WarnEntityNotSpecified WarningFlags = 1 << iota
	WarnFuelNotSpecified
	WarnTemperatureOutOfRange
	WarnFuelDoesNotProvideEnergy
	WarnUselessQualityModules
	WarnProductivityClamped
	WarnFuelUsageLimited

	// Solve warnings.
	WarnExceedsBuiltCount
	WarnDeadlockCandidate
	WarnOverproductionRequired
)

// Has reports whether all given flags are set.
func (w WarningFlags) Has(flags WarningFlags) bool { return w&flags == flags }

var warningText = []struct {
	flag WarningFlags
	text string
}{
	{WarnEntityNotSpecified, "no crafting entity selected"},
	{WarnFuelNotSpecified, "entity needs fuel but none is selected"},
	{WarnTemperatureOutOfRange, "fluid temperature outside the accepted range"},
	{WarnFuelDoesNotProvideEnergy, "selected fuel provides no energy"},
	{WarnUselessQualityModules, "quality modules have no effect here"},
	{WarnProductivityClamped, "productivity clamped at the recipe maximum"},
	{WarnFuelUsageLimited, "recipe slowed by the fuel consumption limit"},
	{WarnExceedsBuiltCount, "requires more buildings than built"},
	{WarnDeadlockCandidate, "possible production deadlock"},
	{WarnOverproductionRequired, "requires overproduction to balance"},
}

// Describe renders the set flags as human-readable phrases, in declaration
// order.
func (w WarningFlags) Describe() []string {
	var out []string
	for _, e := range warningText {
		if w.Has(e.flag) {
			out = append(out, e.text)
		}
	}
	return out
}

// LinkFlags is the per-link post-solve state bitset.
type LinkFlags uint16

const (
	// LinkNotMatched marks a link whose balance constraint did not bind
	// exactly in the accepted solution.
	LinkNotMatched LinkFlags = 1 << iota

	// LinkChildNotMatched marks a link whose same-good counterpart in a
	// nested table went unmatched.
	LinkChildNotMatched

	// LinkRecursiveNotMatched marks a link with an unmatched link anywhere
	// in its subtree, itself included.
	LinkRecursiveNotMatched

	// LinkHasProduction and LinkHasConsumption record whether any enabled
	// row fed or drew from the link during compilation.
	LinkHasProduction
	LinkHasConsumption
)

// Has reports whether all given flags are set.
func (f LinkFlags) Has(flags LinkFlags) bool { return f&flags == flags }

// HasProductionAndConsumption reports whether the link saw both sides.
func (f LinkFlags) HasProductionAndConsumption() bool {
	return f.Has(LinkHasProduction | LinkHasConsumption)
}
