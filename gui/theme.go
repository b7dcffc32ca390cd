//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"murmur/status"
)

// overlayTheme is a dark theme so the badge reads on any wallpaper.
type overlayTheme struct{}

func (overlayTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 20, G: 20, B: 22, A: 235}
	case theme.ColorNameForeground:
		return color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (overlayTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (overlayTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (overlayTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}

func severityColor(sev status.Severity) color.NRGBA {
	switch sev {
	case status.Active:
		return color.NRGBA{R: 235, G: 50, B: 50, A: 255}
	case status.Warn:
		return color.NRGBA{R: 255, G: 150, B: 30, A: 255}
	case status.Error:
		return color.NRGBA{R: 200, G: 0, B: 60, A: 255}
	}
	return color.NRGBA{R: 60, G: 200, B: 110, A: 255}
}
