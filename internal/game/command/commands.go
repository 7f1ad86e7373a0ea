// Package command provides the battle host's command table and line parser.
package command

// Categories for organizing commands in help output.
const (
	CategoryReview   = "review"
	CategoryResolve  = "resolve"
	CategoryDecision = "decision"
	CategoryItem     = "item"
	CategorySystem   = "system"
)

// categoryOrder is the order categories appear in help output.
var categoryOrder = []string{CategoryReview, CategoryResolve, CategoryDecision, CategoryItem, CategorySystem}

// Handler identifiers mapping commands to host actions.
const (
	HandlerReview     = "review"
	HandlerCatch      = "catch"
	HandlerDefeat     = "defeat"
	HandlerKeep       = "keep"
	HandlerReplace    = "replace"
	HandlerEvolve     = "evolve"
	HandlerCancel     = "cancel"
	HandlerDismiss    = "dismiss"
	HandlerUseItem    = "item"
	HandlerTrade      = "trade"
	HandlerStatus     = "status"
	HandlerCollection = "collection"
	HandlerHelp       = "help"
	HandlerQuit       = "quit"
)

// Command defines a host command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage describes the arguments, if any.
	Usage string
	// Help is the short help text.
	Help     string
	Category string
	Handler  string
}

// BuiltinCommands returns every command the battle host understands.
// Review commands are named after the outcome they report; the numeric
// aliases follow the 1-4 answer buttons of a review session.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "again", Aliases: []string{"1"}, Usage: "[move]", Help: "Report a failed review", Category: CategoryReview, Handler: HandlerReview},
		{Name: "hard", Aliases: []string{"2"}, Usage: "[move]", Help: "Report a hard review", Category: CategoryReview, Handler: HandlerReview},
		{Name: "good", Aliases: []string{"3"}, Usage: "[move]", Help: "Report a good review", Category: CategoryReview, Handler: HandlerReview},
		{Name: "easy", Aliases: []string{"4"}, Usage: "[move]", Help: "Report an easy review", Category: CategoryReview, Handler: HandlerReview},

		{Name: "catch", Help: "Catch the fainted wild creature", Category: CategoryResolve, Handler: HandlerCatch},
		{Name: "defeat", Help: "Defeat the fainted wild creature for experience", Category: CategoryResolve, Handler: HandlerDefeat},

		{Name: "keep", Help: "Keep the current moves instead of learning the new one", Category: CategoryDecision, Handler: HandlerKeep},
		{Name: "replace", Aliases: []string{"forget"}, Usage: "<slot>", Help: "Forget the move in slot 0-3 and learn the new one", Category: CategoryDecision, Handler: HandlerReplace},
		{Name: "evolve", Help: "Accept the pending evolution", Category: CategoryDecision, Handler: HandlerEvolve},
		{Name: "cancel", Help: "Cancel the pending evolution", Category: CategoryDecision, Handler: HandlerCancel},
		{Name: "dismiss", Help: "Take the default answer for every pending decision", Category: CategoryDecision, Handler: HandlerDismiss},

		{Name: "item", Aliases: []string{"use"}, Usage: "<name>", Help: "Offer an evolution item", Category: CategoryItem, Handler: HandlerUseItem},
		{Name: "trade", Help: "Trade the creature to trigger a trade evolution", Category: CategoryItem, Handler: HandlerTrade},

		{Name: "status", Aliases: []string{"st"}, Help: "Show both creatures and pending decisions", Category: CategorySystem, Handler: HandlerStatus},
		{Name: "collection", Aliases: []string{"box"}, Help: "List every creature caught so far", Category: CategorySystem, Handler: HandlerCollection},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Save progress and exit", Category: CategorySystem, Handler: HandlerQuit},
	}
}
