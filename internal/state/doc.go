// Package state holds the explore controller's single state record.
//
// # Model
//
// ExploreState is replaced as a whole: writers pass a pure function to
// Store.Update, which computes the next record from the current one and
// installs it with compare-and-swap on an atomic pointer, retrying when it
// loses a race. No lock guards the record itself.
//
// Every successful update bumps a monotonic version and publishes a UiState
// projection. Before the map summary arrives the projection carries only the
// version and the loading flag, so the UI can tell "no map info yet" apart
// from "has map info".
//
// # Subscriptions
//
// Subscribers receive on a one-slot channel that always holds the newest
// projection; a reader that falls behind skips versions instead of blocking
// writers.
//
// # Area list replacement
//
// ReplaceArea locates an entry by descriptor ID, copies the list and
// overwrites that one position. Length and order never change.
package state
