// Package ui provides the Bubble Tea terminal interface for Explore.
//
// # Screens
//
// The list screen shows a header, a "Web Map" card with the map's title,
// snippet and thumbnail size, and the "Map Areas" list. Each area row carries
// a status indicator: a download arrow, a spinner while downloading, or a check
// mark once the package is on disk. Until the map summary arrives the screen
// shows a "Loading Content..." placeholder.
//
// The map screen is titled with the selected area, or with the web map when
// nothing is selected. For an area it shows the live status, the published
// extent and its centre, and the offline path once downloaded. Map tiles are
// not rendered.
//
// # Data Flow
//
// The model never reads the controller's record directly. It subscribes once
// and re-arms a command that waits on the subscription channel; every
// projection it receives replaces the previous one unless its version is
// older. Intents (select, download, delete) call the controller, which
// answers synchronously with the optimistic state.
//
// # Key Bindings
//
//   - j/k, g/G: move through areas (scroll on the map screen)
//   - enter: open the map for the highlighted area
//   - m: open the web map
//   - d: download the area; x: delete it, asking first when
//     confirm_delete is set in prefs
//   - esc/backspace: back to the list
//   - T: cycle theme (saved to prefs); h/?: help; q/ctrl+c: quit
package ui
