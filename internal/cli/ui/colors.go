package ui

import "github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"

// Escape-последовательности терминала
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"

	clearSeq = "\033[H\033[2J"
)

// Значки статусов и разделов вывода сканирования
const (
	IconCheckmark = "✓"
	IconCross     = "✗"
	IconWarn      = "⚠"
	IconPlay      = "▶"
	IconClock     = "⏳"
	IconSearch    = "🔍"
	IconDocument  = "📝"
	IconFolder    = "📁"
	IconCog       = "⚙️"
	IconWave      = "👋"
	IconBulb      = "💡"
	IconList      = "📋"
	IconChart     = "📊"
	IconTime      = "🕐"
)

var stabilityColors = map[locator.Label]string{
	locator.LabelHigh:   ColorGreen,
	locator.LabelMedium: ColorYellow,
	locator.LabelLow:    ColorRed,
}

// StabilityColor: High зелёный, Medium жёлтый, остальное красный.
func StabilityColor(l locator.Label) string {
	if c, ok := stabilityColors[l]; ok {
		return c
	}
	return ColorRed
}

// Paint оборачивает s в цвет и сброс.
func Paint(color, s string) string {
	return color + s + ColorReset
}
