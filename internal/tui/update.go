package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"insarmap/internal/anim"
)

// frameCadence is how often the host offers the advancer a frame slot.
const frameCadence = 16 * time.Millisecond

type frameMsg time.Time

type statusMsg string

func tick() tea.Cmd {
	return tea.Tick(frameCadence, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		m.redraw()
	case frameMsg:
		if m.adv != nil {
			if f, ok := m.adv.Tick(time.Time(msg)); ok {
				m.frame = f
				m.redraw()
				if m.showAttrs {
					m.refreshAttrs()
				}
			}
		}
		return m, tick()
	case loadedMsg:
		if msg.gen != m.gen {
			// superseded by a newer load
			return m, nil
		}
		m.finishLoad(msg)
		if m.showAttrs {
			m.refreshAttrs()
		}
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			if m.adv != nil {
				m.adv.Stop()
			}
			return m, tea.Quit
		case " ":
			m.togglePause()
		case "r":
			return m, m.startLoad()
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
				m.redraw()
			}
		case "-", "_":
			if m.zoom > 0.05 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
				m.redraw()
			}
		case "0":
			m.zoom, m.offsetX, m.offsetY = 1.0, 0, 0
			m.redraw()
		case "tab":
			m.showSidebar = !m.showSidebar
			m.resizeList()
			m.redraw()
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
		case "i":
			if m.summaryPopup != "" {
				m.summaryPopup = ""
			} else {
				m.summaryPopup = m.summaryText()
			}
		case "e":
			return m, m.exportFrame()
		case "esc":
			m.summaryPopup = ""
			m.showAttrs = false
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(presetItem); ok {
					cmd := m.applyPreset(it.preset)
					m.resizeList()
					return m, cmd
				}
			}
		case "up":
			if !m.showSidebar && !m.showAttrs {
				m.offsetY -= 1
				m.redraw()
			}
		case "down":
			if !m.showSidebar && !m.showAttrs {
				m.offsetY += 1
				m.redraw()
			}
		case "left":
			m.offsetX -= 2
			m.redraw()
		case "right":
			m.offsetX += 2
			m.redraw()
		}
	case tea.MouseMsg:
		m.updateHover(msg)
	}
	if m.showAttrs {
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) togglePause() {
	if m.adv == nil {
		m.status = "nothing to animate"
		return
	}
	if m.adv.Running() {
		m.adv.Stop()
		m.status = "paused"
		return
	}
	m.adv.Start()
	m.status = "playing"
}

func (m *Model) resizeList() {
	if m.showSidebar {
		lay := m.layout()
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}
}

func (m *Model) updateHover(msg tea.MouseMsg) {
	lay := m.layout()
	cx, cy := msg.X, msg.Y
	if cx < lay.mapX || cx >= lay.mapX+lay.mapW || cy < lay.mapY || cy >= lay.mapY+lay.mapH {
		if m.hovering {
			m.hovering = false
			m.redraw()
		}
		return
	}
	m.hovering = true
	m.hoverCellX = cx - lay.mapX
	m.hoverCellY = cy - lay.mapY
	m.hoverIdx, m.hoverMicX, m.hoverMicY = m.nearestPoint(m.hoverCellX*2, m.hoverCellY*4, lay.mapW, lay.mapH)
	m.redraw()
}

func (m Model) summaryText() string {
	if m.lastLoad == nil || m.lastLoad.State.Empty() {
		return "no data loaded"
	}
	st := m.lastLoad.State
	lines := fmt.Sprintf("preset: %s\nmode: %s\npoints: %d\nframes: %d",
		m.preset.Name, st.Mode, len(st.Points), st.FrameCount)
	if len(st.Dates) > 0 {
		lines += fmt.Sprintf("\nepochs: %s … %s", anim.FormatDate(st.Dates[0]), anim.FormatDate(st.Dates[len(st.Dates)-1]))
	}
	if st.Mode == anim.ModeTimeline {
		s := m.summary
		lines += fmt.Sprintf("\ntotal change: %.2f … %.2f\nstep change: %.2f … %.2f",
			s.MinTotal, s.MaxTotal, s.MinIncrement, s.MaxIncrement)
	}
	b := m.lastLoad.Bound
	lines += fmt.Sprintf("\nbbox: [%.5f, %.5f, %.5f, %.5f]", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
	return lines
}

// exportFrame writes the current frame as GeoJSON into the export dir.
func (m Model) exportFrame() tea.Cmd {
	if m.lastLoad == nil || m.lastLoad.State.Empty() {
		return func() tea.Msg { return statusMsg("nothing to export") }
	}
	f := m.frame
	// the advancer keeps mutating heights while the command runs
	snap := make([]*anim.Point, len(f.Points))
	for i, p := range f.Points {
		cp := *p
		snap[i] = &cp
	}
	f.Points = snap
	dir := m.deps.ExportDir
	if dir == "" {
		dir = "."
	}
	logger := m.deps.Logger
	return func() tea.Msg {
		path := filepath.Join(dir, fmt.Sprintf("insarmap.frame-%04d.geojson", f.Index))
		file, err := os.Create(path)
		if err != nil {
			logger.Error().Err(err).Msg("exporting frame")
			return statusMsg("export error: " + err.Error())
		}
		defer file.Close()
		if err := anim.WriteGeoJSON(file, f); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("exporting frame")
			return statusMsg("export error: " + err.Error())
		}
		logger.Info().Str("path", path).Int("frame", f.Index).Msg("frame exported")
		return statusMsg("exported " + path)
	}
}
