package tui

import (
	"context"
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"insarmap/internal/anim"
	"insarmap/internal/config"
	"insarmap/internal/pipeline"
)

type presetItem struct {
	preset config.Preset
}

func (p presetItem) Title() string { return p.preset.Name }
func (p presetItem) Description() string {
	mode := p.preset.Mode
	if mode == "" {
		mode = "timeline"
	}
	sample := "all"
	if p.preset.SampleSize > 0 {
		sample = fmt.Sprintf("%d", p.preset.SampleSize)
	}
	desc := fmt.Sprintf("%s · %s pts · %d src", mode, sample, len(p.preset.Locations))
	if ex := p.preset.Exaggeration; ex != nil {
		desc += fmt.Sprintf(" · x%g", *ex)
	}
	return desc
}
func (p presetItem) FilterValue() string { return p.preset.Name }

func presetItems(presets []config.Preset) []list.Item {
	items := make([]list.Item, 0, len(presets))
	for _, p := range presets {
		items = append(items, presetItem{preset: p})
	}
	return items
}

func (m *Model) selectPresetItem(name string) {
	for i, it := range m.l.Items() {
		if pi, ok := it.(presetItem); ok && strings.EqualFold(pi.preset.Name, name) {
			m.l.Select(i)
			return
		}
	}
}

// loadedMsg carries a finished pipeline run. gen ties it to the load that
// started it so results of superseded runs are dropped.
type loadedMsg struct {
	gen      int
	settings pipeline.Settings
	out      *pipeline.Output
	err      error
}

// startLoad cancels whatever pipeline is running, clears the animation and
// returns the command running the active preset.
func (m *Model) startLoad() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.clearAnimation()

	settings, err := pipeline.FromPreset(m.preset, m.deps.Animation, m.deps.Locations)
	if err != nil {
		m.status = "preset error: " + err.Error()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.loading = true
	m.status = "loading " + m.preset.Name + "…"

	gen, loader := m.gen, m.deps.Loader
	m.deps.Logger.Info().Str("preset", settings.Name).Strs("locations", settings.Locations).Msg("pipeline started")
	return func() tea.Msg {
		out, err := pipeline.Run(ctx, loader, settings)
		return loadedMsg{gen: gen, settings: settings, out: out, err: err}
	}
}

// applyPreset switches to the preset picked in the panel and reloads.
func (m *Model) applyPreset(p config.Preset) tea.Cmd {
	m.preset = p
	m.showSidebar = false
	return m.startLoad()
}

func (m *Model) clearAnimation() {
	if m.adv != nil {
		m.adv.Stop()
	}
	m.adv = nil
	m.frame = anim.Frame{}
	m.projected = nil
	m.lastLoad = nil
	m.summaryPopup = ""
	m.showAttrs = false
	m.hoverIdx = -1
	m.redraw()
}

// finishLoad installs a pipeline result and starts animating it.
func (m *Model) finishLoad(msg loadedMsg) {
	m.loading = false
	m.cancel = nil
	if msg.err != nil {
		m.status = "load error: " + msg.err.Error()
		m.deps.Logger.Error().Err(msg.err).Msg("pipeline failed")
		return
	}
	out := msg.out
	adv, err := msg.settings.NewAdvancer(out.State)
	if err != nil {
		m.status = "advancer error: " + err.Error()
		m.deps.Logger.Error().Err(err).Msg("creating advancer")
		return
	}
	m.settings = msg.settings
	m.lastLoad = out
	m.adv = adv
	m.excursion = out.Excursion
	m.summary = anim.Summarize(out.State)
	m.projectPoints()
	m.frame = anim.Frame{
		Index:  out.State.Frame,
		Count:  out.State.FrameCount,
		Date:   out.State.Date(),
		Mode:   out.State.Mode,
		Points: out.State.Points,
	}

	failed := out.Load.Failed()
	m.status = fmt.Sprintf("loaded %d pts from %d/%d sources", len(out.State.Points), len(out.Load.Sources)-failed, len(out.Load.Sources))
	if out.Report.Mismatched > 0 || out.Report.Malformed > 0 {
		m.status += fmt.Sprintf("  dropped: %d mismatched, %d malformed", out.Report.Mismatched, out.Report.Malformed)
	}
	m.deps.Logger.Info().
		Int("points", len(out.State.Points)).
		Int("frames", out.State.FrameCount).
		Int("failedSources", failed).
		Int("mismatched", out.Report.Mismatched).
		Int("malformed", out.Report.Malformed).
		Msg("pipeline finished")

	if out.State.Empty() {
		m.status += "  (nothing to animate)"
	} else {
		adv.Start()
	}
	m.redraw()
}
