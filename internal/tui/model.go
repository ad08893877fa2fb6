package tui

import (
	"context"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"insarmap/internal/anim"
	"insarmap/internal/config"
	"insarmap/internal/pipeline"
)

// Deps is what the program needs from the outside world.
type Deps struct {
	Loader    pipeline.Loader
	Presets   []config.Preset
	Animation config.AnimationConfig
	Logger    zerolog.Logger
	ExportDir string
	// Locations, when set, replace the locations of whatever preset is active.
	Locations []string
}

type Model struct {
	deps Deps

	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// Presets panel
	l      list.Model
	preset config.Preset

	// Pipeline
	initLoad tea.Cmd
	loading  bool
	gen      int
	cancel   context.CancelFunc

	// Animation
	settings  pipeline.Settings
	adv       *anim.Advancer
	frame     anim.Frame
	projected []orb.Point // web mercator, same order as state points
	bound     orb.Bound   // web mercator
	excursion float64
	summary   anim.Summary
	lastLoad  *pipeline.Output

	// last rendered map, rebuilt on accepted frames and view changes
	canvas string
	mapW   int
	mapH   int

	// summary popup
	summaryPopup string

	// hover state
	hovering   bool
	hoverCellX int
	hoverCellY int
	hoverMicX  int
	hoverMicY  int
	hoverIdx   int

	// attributes table
	showAttrs bool
	tbl       table.Model
}

// New builds the model with the configured default preset selected.
func New(deps Deps) Model {
	m := Model{
		deps:        deps,
		helpVisible: true,
		zoom:        1.0,
		status:      "insarmap ready",
		hoverIdx:    -1,
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	if len(deps.Presets) == 0 {
		deps.Presets = config.DefaultPresets
		m.deps.Presets = deps.Presets
	}
	m.preset = deps.Presets[0]
	if p, ok := config.FindPreset(deps.Presets, deps.Animation.Preset); ok {
		m.preset = p
	}
	m.l = list.New(presetItems(deps.Presets), d, 0, 0)
	m.l.Title = "Presets"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	m.selectPresetItem(m.preset.Name)

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.initLoad = m.startLoad()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initLoad, tick())
}
