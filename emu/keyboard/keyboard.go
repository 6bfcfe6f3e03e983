// Package keyboard holds the state of the 16 key CHIP-8 hex keypad.
package keyboard

import (
	"fmt"
	"sort"
	"strings"
)

// Keys is the number of logical keys, 0x0 to 0xF.
const Keys = 16

// Layout maps host key names (upper case, "1", "Q", ...) to logical keys.
type Layout map[string]uint8

// DefaultLayout puts the COSMAC VIP keypad on the left hand side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var DefaultLayout = Layout{
	"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
	"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xD,
	"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xE,
	"Z": 0xA, "X": 0x0, "C": 0xB, "V": 0xF,
}

// Validate checks that every entry points at an existing logical key.
func (l Layout) Validate() error {
	for name, key := range l {
		if key >= Keys {
			return fmt.Errorf("host key %q mapped to invalid key %#x", name, key)
		}
	}
	return nil
}

// Keyboard tracks which logical keys are held down.
type Keyboard struct {
	layout  Layout
	pressed [Keys]bool
}

// New returns a keyboard using a private copy of layout.
func New(layout Layout) *Keyboard {
	l := make(Layout, len(layout))
	for name, key := range layout {
		l[strings.ToUpper(name)] = key
	}
	return &Keyboard{layout: l}
}

// Update replaces the held key set with the logical keys of the given host keys.
// Host keys missing from the layout are ignored.
func (k *Keyboard) Update(hostKeys []string) {
	k.pressed = [Keys]bool{}
	for _, name := range hostKeys {
		if key, ok := k.layout[strings.ToUpper(name)]; ok && key < Keys {
			k.pressed[key] = true
		}
	}
}

func (k *Keyboard) IsPressed(key uint8) bool {
	if key >= Keys {
		return false
	}
	return k.pressed[key]
}

// Pressed returns the held logical keys in ascending order.
func (k *Keyboard) Pressed() []uint8 {
	var keys []uint8
	for key, down := range k.pressed {
		if down {
			keys = append(keys, uint8(key))
		}
	}
	return keys
}

func (k *Keyboard) Clear() {
	k.pressed = [Keys]bool{}
}

// HostKeys lists the mapped host key names, sorted.
func (k *Keyboard) HostKeys() []string {
	names := make([]string, 0, len(k.layout))
	for name := range k.layout {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
