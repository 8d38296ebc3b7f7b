package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/gtui/internal/event"
	"github.com/Iron-Ham/gtui/internal/report"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   Model
	bus     *event.Bus
	subID   string
	events  chan struct{}
}

// New creates a display for view. When bus is non-nil the display
// refreshes as soon as a lifecycle event is published instead of waiting
// for the next tick. Call New before starting the run so no event is missed.
func New(view *report.View, bus *event.Bus, opts Options) *App {
	a := &App{bus: bus}
	if bus != nil {
		a.events = make(chan struct{}, 1)
		a.subID = bus.SubscribeAll(func(event.Event) {
			// Coalesce: one pending wake-up is enough.
			select {
			case a.events <- struct{}{}:
			default:
			}
		})
	}
	a.model = NewModel(view, a.events, opts)
	return a
}

// Run shows the display until the user quits, the run succeeds with
// ExitOnSuccess set, or ctx ends. It returns the final model state.
func (a *App) Run(ctx context.Context) (Model, error) {
	defer a.close()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithOutput(a.model.opts.Output),
	)

	final, err := a.program.Run()
	if m, ok := final.(Model); ok {
		a.model = m
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = ctx.Err()
	}
	return a.model, err
}

func (a *App) close() {
	if a.bus != nil && a.subID != "" {
		a.bus.Unsubscribe(a.subID)
		a.subID = ""
	}
}
