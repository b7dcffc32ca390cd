//go:build gui

// Package gui shows controller status in a small always-on-top overlay
// with a tray menu.
package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"murmur/status"
)

// margin keeps the overlay off the screen edge.
const margin = 20

// App implements status.Display. The overlay is hidden while Ready.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	badge   *Badge
	onReady func()
	posX    int
	posY    int

	quit     chan struct{}
	quitOnce sync.Once
}

func NewApp(onReady func()) *App {
	return &App{onReady: onReady, quit: make(chan struct{})}
}

// Run owns the calling (main) thread until Close.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.murmur.overlay")
	a.fyneApp.Settings().SetTheme(overlayTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu("murmur",
			fyne.NewMenuItem("Quit", a.requestQuit),
		)
		desk.SetSystemTrayMenu(menu)
		if icon := trayIcon(); icon != nil {
			desk.SetSystemTrayIcon(icon)
		}
	}

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("murmur")
	}
	a.badge = NewBadge()
	a.window.SetContent(a.badge)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)
	a.window.Resize(a.badge.MinSize())

	// top-right of the primary monitor's work area
	x, y, w := 0, 0, 1920
	if m := glfw.GetPrimaryMonitor(); m != nil {
		x, y, w, _ = m.GetWorkarea()
	}
	a.posX = x + w - badgeWidth - margin
	a.posY = y + margin

	go a.onReady()

	a.fyneApp.Run()
	return nil
}

// requestQuit asks the app to exit; the controller stops and then Close
// tears the window down.
func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

func (a *App) Quitting() <-chan struct{} { return a.quit }

func (a *App) Show(u status.Update) {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		a.badge.Set(u)
		if u.Label == status.Ready {
			a.window.Hide()
			return
		}
		a.reveal()
	})
}

// reveal shows the overlay without taking focus from the window being
// dictated into.
func (a *App) reveal() {
	if win := glfw.GetCurrentContext(); win != nil {
		win.SetPos(a.posX, a.posY)
		win.SetAttrib(glfw.FocusOnShow, glfw.False)
		win.SetAttrib(glfw.Floating, glfw.True)
		win.Show()
		return
	}
	a.window.Show()
}

func (a *App) Close() {
	a.requestQuit()
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}
