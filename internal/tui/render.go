package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/paulmach/orb"

	"insarmap/internal/geom"
)

// liftMicro is how many braille rows the largest excursion lifts a point.
const liftMicro = 8

// projectPoints caches the mercator position of every animated point and
// their common bound.
func (m *Model) projectPoints() {
	m.projected = nil
	if m.lastLoad == nil {
		return
	}
	pts := m.lastLoad.State.Points
	m.projected = make([]orb.Point, len(pts))
	for i, p := range pts {
		m.projected[i] = geom.Mercator(p.Feature.Coord)
	}
	m.bound = geom.MercatorBound(m.lastLoad.Bound)
	// a single point or a line of points still needs an area to map onto
	const pad = 50.0
	if m.bound.Max[0]-m.bound.Min[0] < pad {
		m.bound.Min[0] -= pad
		m.bound.Max[0] += pad
	}
	if m.bound.Max[1]-m.bound.Min[1] < pad {
		m.bound.Min[1] -= pad
		m.bound.Max[1] += pad
	}
}

// redraw rebuilds the cached map canvas for the current layout.
func (m *Model) redraw() {
	lay := m.layout()
	m.mapW, m.mapH = lay.mapW, lay.mapH
	if m.width == 0 || m.height == 0 {
		m.canvas = ""
		return
	}
	m.canvas = m.renderMap(m.mapW, m.mapH)
}

// cellToLonLat converts a map cell coordinate back to lon/lat using bound, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !m.hasBound() || w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	merc := orb.Point{
		m.bound.Min[0] + nx*(m.bound.Max[0]-m.bound.Min[0]),
		m.bound.Min[1] + ny*(m.bound.Max[1]-m.bound.Min[1]),
	}
	ll := geom.LonLat(merc)
	return ll[0], ll[1], true
}

func (m Model) hasBound() bool {
	return m.bound.Max[0] > m.bound.Min[0] && m.bound.Max[1] > m.bound.Min[1]
}

func (m Model) renderMap(w, h int) string {
	br := newBrailleBuf(w, h)
	if len(m.projected) > 0 && m.hasBound() {
		pts := m.lastLoad.State.Points
		for i, p := range pts {
			mx, my, ok := m.screenXYMicro(m.projected[i], w, h)
			if !ok {
				continue
			}
			col := p.Color.Hex()
			lift := m.liftOf(p.Height - p.Baseline)
			if lift == 0 {
				br.setPixel(mx, my, col)
				continue
			}
			// a short stem from the ground position to the lifted position
			br.drawLineMicro(mx, my, mx, my-lift, col)
		}
	}
	lines := br.toLines()

	// Hover highlight: draw an orange circle at the hovered point cell
	if m.hovering && m.hoverIdx >= 0 {
		cx := m.hoverMicX / 2
		cy := m.hoverMicY / 4
		if cy >= 0 && cy < len(lines) && cx >= 0 && cx < w {
			circle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("◯")
			lines[cy] = replaceCell(lines[cy], cx, circle)
		}
	}
	return strings.Join(lines, "\n")
}

// replaceCell swaps the visible cell at x of an ANSI-styled line.
func replaceCell(line string, x int, cell string) string {
	if x >= ansi.StringWidth(line) {
		return line
	}
	return ansi.Truncate(line, x, "") + cell + ansi.TruncateLeft(line, x+1, "")
}

func (m Model) liftOf(delta float64) int {
	if m.excursion <= 0 {
		return 0
	}
	return int(delta / m.excursion * liftMicro)
}

// screenXYMicro maps a mercator point into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(p orb.Point, w, h int) (int, int, bool) {
	if !m.hasBound() {
		return 0, 0, false
	}
	nx := (p[0] - m.bound.Min[0]) / (m.bound.Max[0] - m.bound.Min[0])
	ny := (p[1] - m.bound.Min[1]) / (m.bound.Max[1] - m.bound.Min[1])
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	wMic := w * 2
	hMic := h * 4
	// keep a margin on top so lifted points stay on screen
	top := liftMicro
	sx := int(zx*float64(wMic-1)) + m.offsetX*2
	sy := top + int((1.0-zy)*float64(hMic-1-top)) + m.offsetY*4
	return sx, sy, true
}

// nearestPoint returns the index of the point closest to the micro coords.
func (m Model) nearestPoint(hxMic, hyMic, w, h int) (idx, bx, by int) {
	best := 1<<31 - 1
	idx, bx, by = -1, hxMic, hyMic
	for i, p := range m.projected {
		mx, my, ok := m.screenXYMicro(p, w, h)
		if !ok {
			continue
		}
		dx := mx - hxMic
		dy := my - hyMic
		d := dx*dx + dy*dy
		if d < best {
			best = d
			idx, bx, by = i, mx, my
		}
	}
	return idx, bx, by
}
