package workflow

import (
	"errors"
	"slices"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/handoff"
)

// State is one step of the payment workflow.
type State string

const (
	CategorySelection   State = "CategorySelection"
	ProviderSelection   State = "ProviderSelection"
	PackageSelection    State = "PackageSelection" // load path only
	DetailsEntry        State = "DetailsEntry"
	ConfirmationHandoff State = "ConfirmationHandoff"
	Success             State = "Success"
)

// ErrIllegalTransition is returned when an action is not allowed in the
// session's current state.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrUnknownPackage is returned when a load package is not sold by the
// selected provider.
var ErrUnknownPackage = errors.New("unknown load package")

// forward lists the legal forward moves.
var forward = map[State][]State{
	CategorySelection:   {ProviderSelection},
	ProviderSelection:   {PackageSelection, DetailsEntry},
	PackageSelection:    {DetailsEntry},
	DetailsEntry:        {ConfirmationHandoff},
	ConfirmationHandoff: {Success, DetailsEntry},
	Success:             {CategorySelection},
}

// States lists every state in workflow order.
func States() []State {
	return []State{CategorySelection, ProviderSelection, PackageSelection, DetailsEntry, ConfirmationHandoff, Success}
}

// CanTransition reports whether from → to is a legal forward move.
// Back moves are governed by the session history instead.
func CanTransition(from, to State) bool {
	return slices.Contains(forward[from], to)
}

// via names the handoff that arrives at a state, given the path taken.
func via(from, to State) (handoff.Transition, bool) {
	switch {
	case from == CategorySelection && to == ProviderSelection:
		return handoff.CategoryToProvider, true
	case from == ProviderSelection && to == PackageSelection:
		return handoff.ProviderToPackage, true
	case from == ProviderSelection && to == DetailsEntry:
		return handoff.ProviderToDetails, true
	case from == PackageSelection && to == DetailsEntry:
		return handoff.PackageToDetails, true
	case from == DetailsEntry && to == ConfirmationHandoff:
		return handoff.DetailsToConfirmation, true
	case from == ConfirmationHandoff && to == Success:
		return handoff.ConfirmationToSuccess, true
	}
	return "", false
}

// endpoints returns the states a handoff leaves and arrives at.
func endpoints(t handoff.Transition) (from, to State, ok bool) {
	switch t {
	case handoff.CategoryToProvider:
		return CategorySelection, ProviderSelection, true
	case handoff.ProviderToPackage:
		return ProviderSelection, PackageSelection, true
	case handoff.ProviderToDetails:
		return ProviderSelection, DetailsEntry, true
	case handoff.PackageToDetails:
		return PackageSelection, DetailsEntry, true
	case handoff.DetailsToConfirmation:
		return DetailsEntry, ConfirmationHandoff, true
	case handoff.ConfirmationToSuccess:
		return ConfirmationHandoff, Success, true
	}
	return "", "", false
}

// fallback is where a hop that arrived broken sends the user. The
// confirmation handoff is not a screen of its own, so a broken success hop
// returns to details entry.
func fallback(t handoff.Transition) State {
	from, _, _ := endpoints(t)
	if from == ConfirmationHandoff {
		return DetailsEntry
	}
	return from
}
