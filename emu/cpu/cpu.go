// Package cpu implements the CHIP-8 interpreter: memory, registers, call
// stack, timers and the instruction set. The display and keypad it drives are
// owned by the CPU and handed out read-only to the driver.
package cpu

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/beanboi7/chyp8/emu/keyboard"
	"github.com/beanboi7/chyp8/emu/screen"
)

const (
	MemorySize   = 4096
	ProgramStart = 0x200
	MaxROMSize   = 0xFFF - ProgramStart //3583 bytes
	StackSize    = 16
	GlyphSize    = 5
)

// the built in hex digit glyphs, 4x5 pixels each, stored from address 0
var fontSet = [16 * GlyphSize]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

type CPU struct {
	opcode     uint16 //last fetched opcode
	memory     [MemorySize]uint8
	V          [16]uint8
	I          uint16 //address register, wraps at 16 bits
	pc         uint16
	stack      [StackSize]uint16
	sp         uint8
	delayTimer uint8 //counts down at 60Hz
	soundTimer uint8 //same as above, buzzer sounds while non zero

	awaitingKey bool //suspended on LD Vx, K
	keyRegister uint8

	display  *screen.Display
	keyboard *keyboard.Keyboard
	rng      *rand.Rand
}

// Option configures a CPU in New.
type Option func(*CPU)

// WithRand sets the random source used by RND.
func WithRand(r *rand.Rand) Option {
	return func(c *CPU) {
		c.rng = r
	}
}

// WithLayout sets the host key layout of the keypad.
func WithLayout(layout keyboard.Layout) Option {
	return func(c *CPU) {
		c.keyboard = keyboard.New(layout)
	}
}

// New returns a reset CPU with the font loaded and no program.
func New(opts ...Option) *CPU {
	c := &CPU{
		display: screen.NewDisplay(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.keyboard == nil {
		c.keyboard = keyboard.New(keyboard.DefaultLayout)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.Reset()
	return c
}

// Reset puts the machine back into its power on state. The loaded program is
// wiped along with the rest of memory.
func (c *CPU) Reset() {
	c.opcode = 0
	c.memory = [MemorySize]uint8{}
	c.V = [16]uint8{}
	c.I = 0
	c.pc = ProgramStart
	c.stack = [StackSize]uint16{}
	c.sp = 0
	c.delayTimer = 0
	c.soundTimer = 0
	c.awaitingKey = false
	c.keyRegister = 0
	c.display.Clear()
	c.keyboard.Clear()
	c.loadFont()
}

func (c *CPU) loadFont() {
	copy(c.memory[:], fontSet[:])
}

// LoadROM copies a program image into memory at ProgramStart.
func (c *CPU) LoadROM(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrROMTooLarge, len(rom), MaxROMSize)
	}
	copy(c.memory[ProgramStart:], rom)
	return nil
}

// Step runs one fetch, decode, execute cycle. While the CPU waits for a key
// press it only polls the keypad. Any returned error is a *Fault and the
// program counter is left on the faulting instruction.
func (c *CPU) Step() error {
	if c.awaitingKey {
		c.resumeOnKey()
		return nil
	}

	address := c.pc
	if int(address)+1 >= MemorySize {
		return &Fault{Kind: ErrPCOutOfBounds, Address: address}
	}
	c.opcode = uint16(c.memory[address])<<8 | uint16(c.memory[address+1])
	c.pc += 2

	ins, ok := lookup(c.opcode)
	if !ok {
		c.pc = address
		return &Fault{Kind: ErrInvalidOpcode, Opcode: c.opcode, Address: address}
	}
	if err := ins.exec(c, decode(c.opcode)); err != nil {
		c.pc = address
		return &Fault{Kind: err, Opcode: c.opcode, Address: address}
	}
	return nil
}

func (c *CPU) resumeOnKey() {
	keys := c.keyboard.Pressed()
	if len(keys) == 0 {
		return
	}
	c.V[c.keyRegister] = keys[0]
	c.awaitingKey = false
	c.pc += 2
}

// TickTimers counts both timers down by one, stopping at zero. It reports
// whether the buzzer should sound for this tick.
func (c *CPU) TickTimers() bool {
	if c.delayTimer > 0 {
		c.delayTimer--
	}
	if c.soundTimer > 0 {
		c.soundTimer--
		return true
	}
	return false
}

func (c *CPU) PC() uint16 { return c.pc }

func (c *CPU) SP() uint8 { return c.sp }

// Opcode returns the most recently fetched instruction.
func (c *CPU) Opcode() uint16 { return c.opcode }

func (c *CPU) DelayTimer() uint8 { return c.delayTimer }

func (c *CPU) SoundTimer() uint8 { return c.soundTimer }

// AwaitingKey reports whether execution is suspended on LD Vx, K.
func (c *CPU) AwaitingKey() bool { return c.awaitingKey }

func (c *CPU) Memory(addr uint16) uint8 {
	return c.memory[addr&0xFFF]
}

// Stack returns the return addresses currently pushed, oldest first.
func (c *CPU) Stack() []uint16 {
	return append([]uint16(nil), c.stack[:c.sp]...)
}

func (c *CPU) Display() *screen.Display {
	return c.display
}

func (c *CPU) Keyboard() *keyboard.Keyboard {
	return c.keyboard
}

// String dumps the register file, handy in debug logs.
func (c *CPU) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pc=0x%03X i=0x%03X sp=%d dt=%d st=%d v=[", c.pc, c.I, c.sp, c.delayTimer, c.soundTimer)
	for i, v := range c.V {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	b.WriteByte(']')
	return b.String()
}
