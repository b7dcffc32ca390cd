//go:build gui

package gui

import (
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"murmur/status"
)

const (
	badgeWidth  = 150
	badgeHeight = 60
	dotSize     = 12
)

// Badge is a colored dot and the status text. The dot pulses while the
// state is Active. All methods must run on the fyne goroutine.
type Badge struct {
	widget.BaseWidget

	dot   *canvas.Circle
	text  *canvas.Text
	pulse *fyne.Animation
	sev   status.Severity
}

func NewBadge() *Badge {
	b := &Badge{
		dot:  canvas.NewCircle(severityColor(status.Idle)),
		text: canvas.NewText("Ready", severityColor(status.Idle)),
	}
	b.text.TextSize = 15
	b.text.TextStyle = fyne.TextStyle{Bold: true}
	b.pulse = fyne.NewAnimation(700*time.Millisecond, func(f float32) {
		c := severityColor(b.sev)
		c.A = uint8(90 + 165*f)
		b.dot.FillColor = c
		b.dot.Refresh()
	})
	b.pulse.AutoReverse = true
	b.pulse.RepeatCount = fyne.AnimationRepeatForever
	b.ExtendBaseWidget(b)
	return b
}

func (b *Badge) CreateRenderer() fyne.WidgetRenderer {
	b.dot.Resize(fyne.NewSize(dotSize, dotSize))
	b.dot.Move(fyne.NewPos(14, (badgeHeight-dotSize)/2))
	b.text.Move(fyne.NewPos(34, (badgeHeight-b.text.MinSize().Height)/2))
	return widget.NewSimpleRenderer(container.NewWithoutLayout(b.dot, b.text))
}

func (b *Badge) MinSize() fyne.Size {
	return fyne.NewSize(badgeWidth, badgeHeight)
}

// Set shows u.
func (b *Badge) Set(u status.Update) {
	b.pulse.Stop()
	b.sev = u.Severity
	c := severityColor(u.Severity)
	b.dot.FillColor = c
	b.text.Color = c
	b.text.Text = strings.TrimSpace(strings.TrimPrefix(u.Label, "●"))
	b.Refresh()
	if u.Severity == status.Active {
		b.pulse.Start()
	}
}
