package progress

import (
	"errors"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
)

// Display renders the multi-row download progress on the terminal. It
// implements Sink; the monitors feed it from their goroutines while
// the render loop owns all row state.
type Display struct {
	program *tea.Program
	send    func(tea.Msg)

	mu     sync.RWMutex
	counts map[string]*atomic.Int64
}

func NewDisplay(cfg *pfconfig.Config) *Display {
	program := tea.NewProgram(newModel(cfg.GetDownloadSettings().ProgressUpdateInterval))
	return &Display{
		program: program,
		send:    program.Send,
		counts:  make(map[string]*atomic.Int64),
	}
}

// Run blocks until the display is finished or the user interrupts it.
func (d *Display) Run() (cancelled bool, err error) {
	final, err := d.program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrInterrupted) {
			return true, nil
		}
		return false, err
	}

	m, ok := final.(model)
	if !ok {
		logutils.Log.Errorf("Unexpected final model type %T", final)
		return false, nil
	}
	return m.cancelled, nil
}

// Finish tells the display that every download reached a final state.
func (d *Display) Finish() {
	d.send(finishMsg{})
}

// Cancel aborts the display from outside the terminal, for example on
// SIGTERM.
func (d *Display) Cancel() {
	d.send(cancelMsg{})
}

func (d *Display) AddRow(id, label string) {
	count := &atomic.Int64{}
	d.mu.Lock()
	d.counts[id] = count
	d.mu.Unlock()

	d.send(addRowMsg{id: id, label: label, count: count})
}

func (d *Display) SetTotal(id string, total int64) {
	d.send(rowTotalMsg{id: id, total: total})
}

func (d *Display) Advance(id string, n int64) {
	d.mu.RLock()
	count := d.counts[id]
	d.mu.RUnlock()

	if count != nil {
		count.Add(n)
	}
}

func (d *Display) RemoveRow(id string) {
	d.mu.Lock()
	delete(d.counts, id)
	d.mu.Unlock()

	d.send(removeRowMsg{id: id})
}

func (d *Display) FinishRow(id string, ok bool) {
	d.send(finishRowMsg{id: id, ok: ok})
}

func (d *Display) Println(line string) {
	d.send(statusLineMsg{line: line})
}
