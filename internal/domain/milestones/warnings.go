package milestones

// WarningCode identifies an advisory condition found while computing
// accessibility. Warnings never stop the computation; a best-effort result
// is always produced.
type WarningCode uint8

const (
	// WarnFewObjectsAccessible fires when fewer than half of all objects are
	// reachable, usually a sign of a broken seed set or over-aggressive
	// inaccessibility marks.
	WarnFewObjectsAccessible WarningCode = iota

	// WarnWinNotAutomatable fires when no automatable path reaches the win
	// condition object.
	WarnWinNotAutomatable

	// WarnMilestoneUnreachable fires per requested milestone that the base
	// walk never reached.
	WarnMilestoneUnreachable
)

// Warning is one advisory diagnostic with a display message.
type Warning struct {
	Code    WarningCode
	Message string
}
