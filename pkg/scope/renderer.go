package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

var (
	backgroundColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	tempColor       = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	rateColor       = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	statusColor     = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

const (
	marginLeft   = 60
	marginRight  = 60
	marginTop    = 20
	marginBottom = 40
)

type renderer struct {
	scope *Scope

	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

func newRenderer(s *Scope) *renderer {
	bg := canvas.NewRectangle(backgroundColor)
	return &renderer{
		scope:      s,
		background: bg,
		objects:    []fyne.CanvasObject{bg},
	}
}

func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *renderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// plot is the drawing area inside the margins.
type plot struct {
	x, y, w, h float32
	xMin, xMax time.Time
}

func (p plot) px(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.w
}

func (p plot) py(f float32) float32 {
	return p.y + p.h - f*p.h
}

func (r *renderer) Refresh() {
	s := r.scope
	s.mu.RLock()
	readings := s.readings
	rates := s.rates
	status := s.status
	temp, rate := s.temp, s.rate
	xMin, xMax := s.xMin, s.xMax
	s.mu.RUnlock()

	size := s.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	p := plot{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		xMin: xMin,
		xMax: xMax,
	}

	r.objects = []fyne.CanvasObject{r.background}
	r.drawGrid(p, temp, rate)

	if len(readings) > 1 {
		points := make([]fyne.Position, len(readings))
		for i, rd := range readings {
			points[i] = fyne.NewPos(p.px(rd.Timestamp), p.py(temp.scale(rd.TemperatureC)))
		}
		r.drawPolyline(points, tempColor, 1.5)
	}
	if len(rates) > 1 {
		points := make([]fyne.Position, len(rates))
		for i, rp := range rates {
			points[i] = fyne.NewPos(p.px(rp.At), p.py(rate.scale(rp.Value)))
		}
		r.drawPolyline(points, rateColor, 1)
	}

	if status != "" {
		r.addText(status, statusColor, 11, fyne.TextAlignLeading, fyne.NewPos(p.x+10, p.y+10))
	}
}

func (r *renderer) drawGrid(p plot, temp, rate axis) {
	const hLines, vLines = 8, 10

	for i := range hLines + 1 {
		y := p.y + float32(i)*p.h/hLines
		r.addLine(fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y), gridColor, 1)

		f := 1 - float64(i)/hLines
		r.addText(fmt.Sprintf("%.1f°C", temp.at(f)), tempColor, 10, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))
		r.addText(fmt.Sprintf("%.2f°C/s", rate.at(f)), rateColor, 10, fyne.TextAlignLeading, fyne.NewPos(p.x+p.w+5, y-6))
	}

	span := p.xMax.Sub(p.xMin)
	for i := range vLines + 1 {
		x := p.x + float32(i)*p.w/vLines
		r.addLine(fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h), gridColor, 1)

		offset := span * time.Duration(i) / vLines
		r.addText(formatOffset(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}
}

func (r *renderer) drawPolyline(points []fyne.Position, c color.Color, width float32) {
	for i := range len(points) - 1 {
		r.addLine(points[i], points[i+1], c, width)
	}
}

func (r *renderer) addLine(a, b fyne.Position, c color.Color, width float32) {
	line := canvas.NewLine(c)
	line.Position1 = a
	line.Position2 = b
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *renderer) addText(text string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	t := canvas.NewText(text, c)
	t.TextSize = size
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *renderer) Destroy() {}

func formatOffset(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
