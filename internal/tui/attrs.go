package tui

import (
	"fmt"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"

	"insarmap/internal/anim"
	"insarmap/internal/geom"
)

// maxAttrRows bounds the attribute table; random presets can hold 400k points.
const maxAttrRows = 500

// refreshAttrs rebuilds the table columns/rows from the animated points.
func (m *Model) refreshAttrs() {
	cols, rows := m.buildAttributes()
	// If there are no columns or rows, disable attributes view to avoid rendering panics
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current dataset"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 5})
	maxColW := 24
	for i, c := range cols {
		w := len(c) + 2
		for _, r := range rows {
			w = max(w, len(r[i])+1)
		}
		tcols = append(tcols, table.Column{Title: c, Width: min(w, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, strconv.Itoa(i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes lists the first sampled points with their current height.
func (m *Model) buildAttributes() ([]string, [][]string) {
	if m.lastLoad == nil || len(m.lastLoad.State.Points) == 0 {
		return nil, nil
	}
	st := m.lastLoad.State
	cols := []string{"id", "lon", "lat", geom.HeightKey, geom.VelocityKey, "height", "Δ"}
	if st.Mode == anim.ModeTimeline {
		cols = append(cols, "total")
	}
	n := min(len(st.Points), maxAttrRows)
	rows := make([][]string, 0, n)
	for i, p := range st.Points[:n] {
		f := p.Feature
		row := []string{
			f.ID,
			fmt.Sprintf("%.5f", f.Lon()),
			fmt.Sprintf("%.5f", f.Lat()),
			fmt.Sprintf("%g", f.Height),
			fmt.Sprintf("%g", f.Velocity),
			fmt.Sprintf("%.2f", p.Height),
			fmt.Sprintf("%+.2f", p.Height-p.Baseline),
		}
		if st.Mode == anim.ModeTimeline && i < len(m.summary.TotalChange) {
			row = append(row, fmt.Sprintf("%+.2f", m.summary.TotalChange[i]))
		}
		rows = append(rows, row)
	}
	return cols, rows
}
