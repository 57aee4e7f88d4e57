package tui

// Color constants for the attendr TUI theme
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors (Purple theme)
	ColorAccentMain   = "#7C3AED" // Logo, accent elements, active borders
	ColorAccentBright = "#A78BFA" // Highlights, running clock

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E" // Clocked in, confirmations
	ColorWarning = "#F59E0B" // Stale figures
)
