package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops labels.
	LayoutCompactWidth = 80

	// LayoutSnippetWidth is the minimum width to show area snippets inline.
	LayoutSnippetWidth = 110
)

// Fixed rows outside the content area: header and command bar.
const chromeHeight = 2

// Modal sizes.
const (
	helpModalWidth    = 44
	confirmModalWidth = 50
)
