package progress

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	pb "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/ui"
	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

const (
	defaultBarWidth = 30
	minBarWidth     = 10
	// reservedColumns is the room kept for the label, the percentage
	// and the byte counters on one progress line.
	reservedColumns = 50
)

type addRowMsg struct {
	id    string
	label string
	count *atomic.Int64
}

type rowTotalMsg struct {
	id    string
	total int64
}

type removeRowMsg struct {
	id string
}

type finishRowMsg struct {
	id string
	ok bool
}

type statusLineMsg struct {
	line string
}

type finishMsg struct{}

type cancelMsg struct{}

type tickMsg time.Time

type row struct {
	id         string
	label      string
	count      *atomic.Int64
	bar        pb.Model
	started    bool
	done       bool
	failed     bool
	total      int64
	received   int64
	startedAt  time.Time
	finishedAt time.Time
}

type model struct {
	rows      []row
	interval  time.Duration
	barWidth  int
	cancelled bool
}

func newModel(interval time.Duration) model {
	return model{
		interval: interval,
		barWidth: defaultBarWidth,
	}
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case tea.InterruptMsg:
		m.cancelled = true
		return m, tea.Quit

	case cancelMsg:
		m.cancelled = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.barWidth = msg.Width - reservedColumns
		if m.barWidth < minBarWidth {
			m.barWidth = minBarWidth
		}
		if m.barWidth > defaultBarWidth {
			m.barWidth = defaultBarWidth
		}
		for i := range m.rows {
			m.rows[i].bar.Width = m.barWidth
		}
		return m, nil

	case addRowMsg:
		bar := pb.New(pb.WithDefaultGradient())
		bar.Width = m.barWidth
		m.rows = append(m.rows, row{
			id:    msg.id,
			label: msg.label,
			count: msg.count,
			bar:   bar,
		})
		return m, nil

	case rowTotalMsg:
		if i := m.rowIndex(msg.id); i >= 0 {
			m.rows[i].started = true
			m.rows[i].total = msg.total
			m.rows[i].startedAt = time.Now()
		}
		return m, nil

	case removeRowMsg:
		if i := m.rowIndex(msg.id); i >= 0 {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
		}
		return m, nil

	case finishRowMsg:
		if i := m.rowIndex(msg.id); i >= 0 {
			m.rows[i].done = true
			m.rows[i].failed = !msg.ok
			m.rows[i].finishedAt = time.Now()
			if m.rows[i].count != nil {
				m.rows[i].received = m.rows[i].count.Load()
			}
		}
		return m, nil

	case statusLineMsg:
		return m, tea.Println(msg.line)

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case finishMsg:
		m.refresh()
		return m, tea.Quit
	}

	return m, nil
}

func (m model) rowIndex(id string) int {
	for i := range m.rows {
		if m.rows[i].id == id {
			return i
		}
	}
	return -1
}

// refresh copies the atomic byte counters into the rows so View works
// on a consistent snapshot.
func (m *model) refresh() {
	for i := range m.rows {
		if m.rows[i].done || m.rows[i].count == nil {
			continue
		}
		m.rows[i].received = m.rows[i].count.Load()
	}
}

func (m model) View() string {
	if len(m.rows) == 0 {
		return ""
	}

	labelWidth := 0
	for i := range m.rows {
		if w := lipgloss.Width(m.rows[i].label); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	for i := range m.rows {
		b.WriteString(m.renderRow(&m.rows[i], labelWidth))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m model) renderRow(r *row, labelWidth int) string {
	label := ui.LabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, r.label))

	if !r.started {
		if r.failed {
			return fmt.Sprintf("%s  %s", label, ui.ErrorStyle.Render("failed"))
		}
		return fmt.Sprintf("%s  %s", label, ui.FaintStyle.Render(lang.GetMessage(lang.WaitingMsgID)))
	}

	elapsed := time.Since(r.startedAt)
	if r.done {
		elapsed = r.finishedAt.Sub(r.startedAt)
	}
	var speed float64
	if elapsed > 0 {
		speed = float64(r.received) / elapsed.Seconds()
	}

	var line string
	if r.total > 0 {
		ratio := float64(r.received) / float64(r.total)
		if ratio > 1 {
			ratio = 1
		}
		line = fmt.Sprintf("%s  %s  %s/%s  %s",
			label,
			r.bar.ViewAs(ratio),
			utils.FormatBytes(r.received),
			utils.FormatBytes(r.total),
			utils.FormatSpeed(speed),
		)
		if !r.done {
			if eta := etaFor(r.received, r.total, speed); eta > 0 {
				line += "  " + ui.FaintStyle.Render("ETA "+utils.FormatDuration(eta))
			}
		}
	} else {
		// The server did not announce a size, count bytes instead of
		// rendering a completion bar.
		line = fmt.Sprintf("%s  %s  %s",
			label,
			utils.FormatBytes(r.received),
			utils.FormatSpeed(speed),
		)
	}

	if r.failed {
		line += "  " + ui.ErrorStyle.Render("failed")
	}
	return line
}

// etaFor estimates the time left at the current average speed. Zero
// means no estimate is possible.
func etaFor(received, total int64, speed float64) time.Duration {
	if total <= 0 || received >= total || speed <= 0 {
		return 0
	}
	remaining := float64(total - received)
	return time.Duration(remaining / speed * float64(time.Second))
}
