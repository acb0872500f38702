// SPDX-License-Identifier: MIT

// Package tui renders a live terminal meter on top of the analysis
// engine: band gauges, the capture level and a condensed spectrum
// strip, refreshed at roughly 30Hz.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"audioviz/internal/analysis"
)

const tickInterval = 33 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(7)).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(8))

	quietStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(10))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(11))

	hotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.ANSIColor(9))
)

// barBlocks are the eighth-block glyphs used for the spectrum strip,
// from empty to full.
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Sampler is the slice of the analysis engine the meter polls each
// frame.
type Sampler interface {
	SampleFrequencyDataInto(dst []byte) (int, error)
	BinCount() int
}

type tickMsg time.Time

type keyMap struct {
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// MeterModel is the Bubble Tea model for the live meter.
type MeterModel struct {
	sampler Sampler
	level   func() float64

	spectrum []byte
	bands    analysis.BandEnergies
	input    float64
	width    int
	err      error
	keys     keyMap
}

// NewMeterModel creates a meter over the given sampler. level may be
// nil, in which case the input gauge falls back to the spectrum
// average.
func NewMeterModel(s Sampler, level func() float64) MeterModel {
	return MeterModel{
		sampler:  s,
		level:    level,
		spectrum: make([]byte, s.BinCount()),
		width:    80,
		keys:     defaultKeyMap(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m MeterModel) Init() tea.Cmd {
	return tick()
}

func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		n, err := m.sampler.SampleFrequencyDataInto(m.spectrum)
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.bands = analysis.Energies(m.spectrum[:n])
		if m.level != nil {
			m.input = m.level()
		} else {
			m.input = m.bands.Average
		}
		return m, tick()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m MeterModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	gaugeWidth := m.width - 20
	if gaugeWidth < 10 {
		gaugeWidth = 10
	}
	if gaugeWidth > 60 {
		gaugeWidth = 60
	}

	stripWidth := m.width - 4
	if stripWidth < 16 {
		stripWidth = 16
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("audioviz"))
	sb.WriteString("\n\n")
	sb.WriteString(renderGauge("bass", m.bands.Bass, gaugeWidth))
	sb.WriteString(renderGauge("mid", m.bands.Mid, gaugeWidth))
	sb.WriteString(renderGauge("treble", m.bands.Treble, gaugeWidth))
	sb.WriteString(renderGauge("average", m.bands.Average, gaugeWidth))
	sb.WriteString("\n")
	sb.WriteString(renderGauge("input", m.input, gaugeWidth))
	sb.WriteString("\n")
	sb.WriteString("  ")
	sb.WriteString(renderSpectrum(m.spectrum, stripWidth))
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("q: Quit"))
	sb.WriteString("\n")

	return sb.String()
}

// intensityStyle picks a color for a normalized value, green when
// quiet and red when hot.
func intensityStyle(value float64) lipgloss.Style {
	switch {
	case value > 0.75:
		return hotStyle
	case value > 0.45:
		return activeStyle
	default:
		return quietStyle
	}
}

// renderGauge draws one labeled horizontal bar, e.g.
//
//	bass     [██████░░░░░░] 0.52
func renderGauge(label string, value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	filled := int(value*float64(width) + 0.5)
	if filled > width {
		filled = width
	}

	bar := intensityStyle(value).Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", width-filled)

	return fmt.Sprintf("%s [%s] %.2f\n",
		labelStyle.Render(fmt.Sprintf("%-8s", label)), bar, value)
}

// renderSpectrum condenses the byte spectrum into a single row of
// block glyphs, one column per group of bins.
func renderSpectrum(spectrum []byte, columns int) string {
	if len(spectrum) == 0 || columns < 1 {
		return ""
	}
	if columns > len(spectrum) {
		columns = len(spectrum)
	}

	per := len(spectrum) / columns

	var sb strings.Builder
	for c := range columns {
		lo := c * per
		hi := lo + per
		if hi > len(spectrum) {
			hi = len(spectrum)
		}

		sum := 0
		for _, b := range spectrum[lo:hi] {
			sum += int(b)
		}
		mean := float64(sum) / float64(hi-lo) / 255.0

		idx := int(mean * float64(len(barBlocks)-1))
		if idx >= len(barBlocks) {
			idx = len(barBlocks) - 1
		}

		sb.WriteString(intensityStyle(mean).Render(barBlocks[idx]))
	}

	return sb.String()
}

// StartMeterUI runs the live meter until the user quits or the
// sampler reports an error.
func StartMeterUI(s Sampler, level func() float64) error {
	p := tea.NewProgram(NewMeterModel(s, level), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run meter UI: %w", err)
	}
	return nil
}
