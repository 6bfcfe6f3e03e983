// Package terminal presents the CHIP-8 screen in a text terminal via termbox.
package terminal

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/nsf/termbox-go"
)

// terminals only report key presses, never releases, so a key counts as held
// for this long after its last press or auto repeat
const keyRepeatDuration = time.Second / 5

type Terminal struct {
	keys *heldKeys

	// termbox calls, replaced in tests
	interrupt func()
	flush     func() error
	release   func()

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New takes over the terminal and starts listening for key presses. keys are
// the host key names of the keypad layout; other keys are ignored. Esc and
// Ctrl+C close the terminal.
func New(keys []string) (*Terminal, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	t := &Terminal{
		keys:      newHeldKeys(keys, keyRepeatDuration),
		interrupt: termbox.Interrupt,
		flush:     termbox.Flush,
		release:   termbox.Close,
		done:      make(chan struct{}),
	}
	go t.poll()
	return t, nil
}

func (t *Terminal) poll() {
	defer close(t.done)
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			// keep polling until Close interrupts
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
				t.setClosed()
				continue
			}
			if ev.Ch != 0 {
				t.keys.press(string(ev.Ch), time.Now())
			}
		case termbox.EventError:
			t.setClosed()
			return
		case termbox.EventInterrupt:
			return
		}
	}
}

func (t *Terminal) setClosed() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

func (t *Terminal) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Terminal) Pressed() []string {
	return t.keys.held(time.Now())
}

// Present draws two CHIP-8 rows per terminal row using half block glyphs. A
// terminal that can no longer be written to counts as closed.
func (t *Terminal) Present(fb screen.Framebuffer) {
	for y := 0; y < screen.Height; y += 2 {
		for x := 0; x < screen.Width; x++ {
			top := fb[x+y*screen.Width]
			bottom := fb[x+(y+1)*screen.Width]
			termbox.SetCell(x, y/2, halfBlock(top, bottom), termbox.ColorWhite, termbox.ColorBlack)
		}
	}
	if err := t.flush(); err != nil {
		t.setClosed()
	}
}

// Close stops the input loop and gives the terminal back. After an input
// error the loop has ended already and nothing would receive the interrupt.
func (t *Terminal) Close() error {
	t.setClosed()
	select {
	case <-t.done:
	default:
		t.interrupt()
		<-t.done
	}
	t.release()
	return nil
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}

// heldKeys remembers until when each key counts as held.
type heldKeys struct {
	mu    sync.Mutex
	hold  time.Duration
	known map[string]bool
	until map[string]time.Time
}

func newHeldKeys(names []string, hold time.Duration) *heldKeys {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[strings.ToUpper(name)] = true
	}
	return &heldKeys{
		hold:  hold,
		known: known,
		until: map[string]time.Time{},
	}
}

func (h *heldKeys) press(name string, now time.Time) {
	name = strings.ToUpper(name)
	if !h.known[name] {
		return
	}
	h.mu.Lock()
	h.until[name] = now.Add(h.hold)
	h.mu.Unlock()
}

func (h *heldKeys) held(now time.Time) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var names []string
	for name, until := range h.until {
		if now.Before(until) {
			names = append(names, name)
		} else {
			delete(h.until, name)
		}
	}
	sort.Strings(names)
	return names
}
