// Package control implements the line-oriented console panel that edits the
// viewer settings. Every change goes through the settings store; invalid
// input is reported with a notice and the previous value is kept.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/gridsurface"
	"github.com/gogpu/gridsurface/internal/notice"
	"github.com/gogpu/gridsurface/settings"
)

// ErrQuit is returned by Run when the user asks to quit.
var ErrQuit = errors.New("control: quit requested")

// Panel executes console commands against a settings store.
type Panel struct {
	store *settings.Store
	notes *notice.Notifier
}

// New returns a panel editing store and reporting through notes.
func New(store *settings.Store, notes *notice.Notifier) *Panel {
	return &Panel{store: store, notes: notes}
}

// Run reads commands from in, one per line, until EOF, a quit command or
// ctx is done. It returns ErrQuit on quit and nil on EOF or cancellation.
func (p *Panel) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return fmt.Errorf("control: read commands: %w", err)
					}
				default:
				}
				return nil
			}
			if p.Exec(line) {
				return ErrQuit
			}
		}
	}
}

// Exec runs a single command line. It reports whether the command asked to
// quit.
func (p *Panel) Exec(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	arg := strings.Join(args, " ")

	switch cmd {
	case "count", "n":
		p.setCount(arg)
	case "size", "s":
		p.setSize(arg)
	case "wireframe", "grid", "w":
		p.setWireframe(arg)
	case "reset":
		p.commit(p.store.Reset())
	case "show":
		p.show()
	case "help", "?":
		p.notes.Notify(notice.Help)
	case "quit", "exit", "q":
		return true
	default:
		p.notes.Notify(notice.UnknownCommand, fields[0])
	}
	return false
}

func (p *Panel) setCount(arg string) {
	n, err := settings.ParseCellCount(arg)
	if err != nil {
		p.notes.Notify(notice.InputIgnored, arg, "count", p.store.Get().CellCount)
		return
	}
	p.commit(p.store.Update(func(s *settings.Settings) { s.CellCount = n }))
}

func (p *Panel) setSize(arg string) {
	size, err := settings.ParseCellSize(arg)
	if err != nil {
		p.notes.Notify(notice.InputIgnored, arg, "size", p.store.Get().CellSize)
		return
	}
	p.commit(p.store.Update(func(s *settings.Settings) { s.CellSize = size }))
}

func (p *Panel) setWireframe(arg string) {
	if arg == "" || strings.EqualFold(arg, "toggle") {
		p.commit(p.store.Update(func(s *settings.Settings) { s.ShowWireframe = !s.ShowWireframe }))
		return
	}
	on, err := settings.ParseBool(arg)
	if err != nil {
		p.notes.Notify(notice.InputIgnored, arg, "wireframe", p.store.Get().ShowWireframe)
		return
	}
	p.commit(p.store.Update(func(s *settings.Settings) { s.ShowWireframe = on }))
}

func (p *Panel) show() {
	s := p.store.Get()
	p.notes.Notify(notice.Current, s.CellCount, s.CellSize, s.ShowWireframe)
}

// commit logs the outcome of a store change. The in-memory value is already
// applied even when persisting it failed.
func (p *Panel) commit(changed bool, err error) {
	if err != nil {
		gridsurface.Logger().Warn("control: settings not saved", "err", err)
	}
	if changed {
		p.show()
	}
}
