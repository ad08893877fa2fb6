package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"insarmap/internal/anim"
)

const sidebarWidth = 34

type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

func (m Model) layout() layout {
	sw := 0
	if m.showSidebar {
		sw = sidebarWidth + 1
	}
	headerHeight := 1
	footerHeight := 2
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	return layout{
		contentW: contentWidth,
		contentH: contentHeight,
		mapX:     sw,
		mapY:     headerHeight,
		mapW:     max(10, contentWidth-sw-1),
		mapH:     contentHeight,
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()

	// Header
	header := titleStyle.Render(" insarmap ─ InSAR displacement in motion ")
	if m.preset.Name != "" {
		header += dimStyle.Render("  " + m.preset.Name)
	}
	header = lipgloss.NewStyle().Width(lay.contentW).Render(header)

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	if m.showAttrs {
		// Render attributes table centered in the map area
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, lay.contentW-6)
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	} else {
		canvas := m.canvas
		if m.loading && canvas == "" {
			canvas = dimStyle.Render("loading…")
		}
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).MaxHeight(lay.mapH).Render(canvas)
	}

	// Summary popup (center-left overlay, above the body)
	popup := ""
	if m.summaryPopup != "" && !m.showAttrs {
		maxPopupW := max(20, min(52, lay.contentW/2))
		box := boxStyle.MaxWidth(maxPopupW).Render(m.summaryPopup)
		popup = lipgloss.Place(lay.contentW, lipgloss.Height(box), lipgloss.Left, lipgloss.Center, box)
	}

	body := mapView
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	parts := []string{header}
	if popup != "" {
		parts = append(parts, popup)
	}
	parts = append(parts, body, m.renderFooter(lay.contentW))
	ui := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return appStyle.Width(lay.contentW).Height(m.height).MaxHeight(m.height).Render(ui)
}

func (m Model) renderFooter(width int) string {
	status := dimStyle.Render(" " + m.status + " ")
	frame := ""
	if m.frame.Count > 0 {
		state := "▶"
		if m.adv == nil || !m.adv.Running() {
			state = "⏸"
		}
		frame = frameStyle.Render(fmt.Sprintf(" %s %d/%d ", state, m.frame.Index+1, m.frame.Count))
		if m.frame.Date != "" {
			frame += dateStyle.Render(anim.FormatDate(m.frame.Date) + " ")
		}
		frame += dimStyle.Render(fmt.Sprintf("%d pts", len(m.frame.Points)))
	}
	hover := ""
	if m.hovering {
		if lon, lat, ok := m.cellToLonLat(m.hoverCellX, m.hoverCellY, m.mapW, m.mapH); ok {
			hover = fmt.Sprintf("lon=%.5f lat=%.5f", lon, lat)
		}
		if m.hoverIdx >= 0 && m.lastLoad != nil && m.hoverIdx < len(m.lastLoad.State.Points) {
			p := m.lastLoad.State.Points[m.hoverIdx]
			hover += fmt.Sprintf("  id=%s h=%.2f v=%.1f", p.Feature.ID, p.Height, p.Feature.Velocity)
		}
		hover = dimStyle.Render("  " + hover + "  ")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Bottom, frame, status)
	spacerW := max(0, width-lipgloss.Width(top)-lipgloss.Width(hover))
	top = top + strings.Repeat(" ", spacerW) + hover
	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, top, m.renderHelp()))
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"space pause",
		"↑↓←→ pan",
		"+/- zoom",
		"Tab presets",
		"Enter apply",
		"r reload",
		"a attrs",
		"i summary",
		"e export",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
