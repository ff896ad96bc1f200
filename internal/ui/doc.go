// Package ui implements the interactive catalog browser using bubbletea's Elm architecture.
//
// Views:
//  1. [LoginView] : email and password sign-in, shown when the session is anonymous
//  2. [ListView] : a ranked listing (popular, recent, top) or search results
//  3. [SearchView] : free-text query input
//  4. [DetailView] : a single song
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results of
// background work via the Msg union type. It only talks to the service through a [session.Provider] and
// a [Catalog], so both can be replaced in tests.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, tab, q) with contextual help displayed
// via charmbracelet/bubbles/help.
package ui
