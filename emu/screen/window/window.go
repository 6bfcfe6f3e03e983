// Package window presents the CHIP-8 screen in a pixelgl window and reads the
// keypad from the window's keyboard. It must run on the main thread, inside
// pixelgl.Run.
package window

import (
	"fmt"

	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/imdraw"
	"github.com/faiface/pixel/pixelgl"
	"golang.org/x/image/colornames"
)

type Window struct {
	*pixelgl.Window
	KeyMap map[string]pixelgl.Button
	scale  float64
	imd    *imdraw.IMDraw
}

// New opens a window scale times the CHIP-8 resolution. keys are the host key
// names the keypad layout uses, each must name a letter or digit key.
func New(title string, scale int, keys []string) (*Window, error) {
	keyMap := make(map[string]pixelgl.Button, len(keys))
	for _, name := range keys {
		button, ok := buttons[name]
		if !ok {
			return nil, fmt.Errorf("no window key named %q", name)
		}
		keyMap[name] = button
	}

	cfg := pixelgl.WindowConfig{
		Title:     title,
		Bounds:    pixel.R(0, 0, float64(screen.Width*scale), float64(screen.Height*scale)),
		Resizable: false,
		VSync:     true,
	}
	win, err := pixelgl.NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing window: %w", err)
	}
	win.Clear(colornames.Black)

	return &Window{
		Window: win,
		KeyMap: keyMap,
		scale:  float64(scale),
		imd:    imdraw.New(nil),
	}, nil
}

// Pressed polls the window events and returns the held keypad keys. Escape
// closes the window.
func (w *Window) Pressed() []string {
	w.UpdateInput()
	if w.Window.Pressed(pixelgl.KeyEscape) {
		w.SetClosed(true)
	}

	var held []string
	for name, button := range w.KeyMap {
		if w.Window.Pressed(button) {
			held = append(held, name)
		}
	}
	return held
}

// Present draws the framebuffer, lit pixels white on black. pixelgl's origin
// is bottom left so rows are flipped.
func (w *Window) Present(fb screen.Framebuffer) {
	w.Clear(colornames.Black)
	w.imd.Clear()
	w.imd.Color = colornames.White
	for y := 0; y < screen.Height; y++ {
		for x := 0; x < screen.Width; x++ {
			if !fb[x+y*screen.Width] {
				continue
			}
			flipped := float64(screen.Height - 1 - y)
			w.imd.Push(
				pixel.V(float64(x)*w.scale, flipped*w.scale),
				pixel.V(float64(x+1)*w.scale, (flipped+1)*w.scale),
			)
			w.imd.Rectangle(0)
		}
	}
	w.imd.Draw(w)
	w.Update()
}

func (w *Window) Close() error {
	w.Destroy()
	return nil
}

var buttons = map[string]pixelgl.Button{
	"0": pixelgl.Key0, "1": pixelgl.Key1, "2": pixelgl.Key2, "3": pixelgl.Key3, "4": pixelgl.Key4,
	"5": pixelgl.Key5, "6": pixelgl.Key6, "7": pixelgl.Key7, "8": pixelgl.Key8, "9": pixelgl.Key9,
	"A": pixelgl.KeyA, "B": pixelgl.KeyB, "C": pixelgl.KeyC, "D": pixelgl.KeyD, "E": pixelgl.KeyE,
	"F": pixelgl.KeyF, "G": pixelgl.KeyG, "H": pixelgl.KeyH, "I": pixelgl.KeyI, "J": pixelgl.KeyJ,
	"K": pixelgl.KeyK, "L": pixelgl.KeyL, "M": pixelgl.KeyM, "N": pixelgl.KeyN, "O": pixelgl.KeyO,
	"P": pixelgl.KeyP, "Q": pixelgl.KeyQ, "R": pixelgl.KeyR, "S": pixelgl.KeyS, "T": pixelgl.KeyT,
	"U": pixelgl.KeyU, "V": pixelgl.KeyV, "W": pixelgl.KeyW, "X": pixelgl.KeyX, "Y": pixelgl.KeyY,
	"Z": pixelgl.KeyZ,
}
