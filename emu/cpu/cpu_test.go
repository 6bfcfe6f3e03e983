package cpu

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCPU returns a CPU with the given opcodes loaded at ProgramStart.
func newTestCPU(t *testing.T, program ...uint16) *CPU {
	t.Helper()
	rom := make([]byte, 0, len(program)*2)
	for _, op := range program {
		rom = append(rom, byte(op>>8), byte(op))
	}
	c := New(WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, c.LoadROM(rom))
	return c
}

func steps(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Step())
	}
}

func TestNew(t *testing.T) {
	c := New()
	assert.Equal(t, uint16(ProgramStart), c.PC())
	assert.Equal(t, uint8(0), c.SP())
	assert.Equal(t, byte(0x90), c.Memory(3))
	assert.Equal(t, fontSet[:], readMemory(c, 0, len(fontSet)))
	assert.Equal(t, uint8(0), c.Memory(ProgramStart))
}

func TestCPU_Reset(t *testing.T) {
	c := newTestCPU(t, 0x6A02, 0x2300)
	steps(t, c, 2)
	c.delayTimer = 3
	c.Keyboard().Update([]string{"1"})
	c.Display().SetPixel(1, 1, true)

	c.Reset()
	assert.Equal(t, uint16(ProgramStart), c.PC())
	assert.Equal(t, [16]uint8{}, c.V)
	assert.Empty(t, c.Stack())
	assert.Equal(t, uint8(0), c.DelayTimer())
	assert.Empty(t, c.Keyboard().Pressed())
	assert.Equal(t, screen.Framebuffer{}, c.Display().Framebuffer())
	assert.Equal(t, uint8(0), c.Memory(ProgramStart), "program is wiped")
	assert.Equal(t, byte(0xF0), c.Memory(0))
}

func TestCPU_LoadROM(t *testing.T) {
	c := New()
	require.NoError(t, c.LoadROM([]byte{0x01, 0x02}))
	assert.Equal(t, uint8(0x01), c.Memory(0x200))
	assert.Equal(t, uint8(0x02), c.Memory(0x201))
	assert.Equal(t, uint8(0x00), c.Memory(0x202))

	require.NoError(t, c.LoadROM(make([]byte, MaxROMSize)))

	err := c.LoadROM(make([]byte, MaxROMSize+1))
	assert.ErrorIs(t, err, ErrROMTooLarge)
}

func TestCPU_StepFetchOutOfBounds(t *testing.T) {
	c := newTestCPU(t)
	c.pc = 0xFFF

	err := c.Step()
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, ErrPCOutOfBounds)
	assert.Equal(t, uint16(0xFFF), fault.Address)

	c.pc = 0xFFE
	assert.NoError(t, c.Step(), "0xFFE/0xFFF is the last full word")
}

func TestCPU_StepInvalidOpcode(t *testing.T) {
	for _, op := range []uint16{0x8008, 0x800F, 0x9001, 0xE000, 0xE09F, 0xF000, 0xF0FF} {
		c := newTestCPU(t, op)
		err := c.Step()

		var fault *Fault
		require.ErrorAs(t, err, &fault, "opcode %04X", op)
		assert.ErrorIs(t, err, ErrInvalidOpcode)
		assert.Equal(t, op, fault.Opcode)
		assert.Equal(t, uint16(ProgramStart), fault.Address)
		assert.Equal(t, uint16(ProgramStart), c.PC())
	}
}

func TestFault_Error(t *testing.T) {
	f := &Fault{Kind: ErrInvalidOpcode, Opcode: 0x5001, Address: 0x204}
	assert.Equal(t, "chip8: invalid opcode: opcode 0x5001 at 0x204", f.Error())
	assert.True(t, errors.Is(f, ErrInvalidOpcode))

	f = &Fault{Kind: ErrPCOutOfBounds, Address: 0xFFF}
	assert.Equal(t, "chip8: program counter out of bounds: fetch at 0xFFF", f.Error())
}

func TestCPU_LoadAddScenario(t *testing.T) {
	c := newTestCPU(t, 0x6A02, 0x6B03, 0x8AB4)
	steps(t, c, 3)

	assert.Equal(t, uint8(5), c.V[0xA])
	assert.Equal(t, uint8(3), c.V[0xB])
	assert.Equal(t, uint8(0), c.V[0xF])
	assert.Equal(t, uint16(ProgramStart+6), c.PC())
	assert.Equal(t, uint16(0x8AB4), c.Opcode())
}

func TestCPU_ClearAndDrawGlyphScenario(t *testing.T) {
	// V0 = V1 = 0, I = glyph "0"
	c := newTestCPU(t, 0x00E0, 0xF029, 0xD015)
	c.Display().SetPixel(40, 20, true)
	steps(t, c, 3)

	d := c.Display()
	assert.True(t, d.NeedsRedraw())
	assert.False(t, d.Pixel(40, 20))
	assert.Equal(t, uint8(0), c.V[0xF])
	for row := 0; row < GlyphSize; row++ {
		for col := 0; col < 8; col++ {
			expected := fontSet[row]&(0x80>>col) != 0
			assert.Equal(t, expected, d.Pixel(col, row), "row %d col %d", row, col)
		}
	}
}

func TestCPU_Draw(t *testing.T) {
	// I = 0x300, V0 = 60, V1 = 31, draw 2 rows twice
	c := newTestCPU(t, 0xA300, 0x603C, 0x611F, 0xD012, 0xD012)
	c.memory[0x300] = 0xFF
	c.memory[0x301] = 0x81
	steps(t, c, 4)

	d := c.Display()
	assert.Equal(t, uint8(0), c.V[0xF])
	for _, x := range []int{60, 61, 62, 63, 0, 1, 2, 3} {
		assert.True(t, d.Pixel(x, 31), "x=%d", x)
	}
	assert.True(t, d.Pixel(60, 0))
	assert.True(t, d.Pixel(3, 0))
	assert.False(t, d.Pixel(61, 0))

	steps(t, c, 1)
	assert.Equal(t, uint8(1), c.V[0xF])
	assert.Equal(t, screen.Framebuffer{}, d.Framebuffer())
	assert.Equal(t, uint16(0x300), c.I, "I is not modified")
}

func TestCPU_DrawZeroRowsClearsFlag(t *testing.T) {
	c := newTestCPU(t, 0x6F01, 0xD000)
	steps(t, c, 2)
	assert.Equal(t, uint8(0), c.V[0xF])
}

func TestCPU_JumpCallReturn(t *testing.T) {
	c := newTestCPU(t,
		0x2206, // 200: call 206
		0x6101, // 202: ld V1, 1
		0x1208, // 204: jp 208
		0x00EE, // 206: ret
		0x6202, // 208: ld V2, 2
	)

	steps(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC())
	assert.Equal(t, []uint16{0x202}, c.Stack())
	assert.Equal(t, uint8(1), c.SP())

	steps(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())
	assert.Empty(t, c.Stack())

	steps(t, c, 3)
	assert.Equal(t, uint8(1), c.V[1])
	assert.Equal(t, uint8(2), c.V[2])
	assert.Equal(t, uint16(0x20A), c.PC())
}

func TestCPU_StackUnderflow(t *testing.T) {
	c := newTestCPU(t, 0x00EE)
	err := c.Step()
	assert.ErrorIs(t, err, ErrStackUnderflow)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint16(0x00EE), fault.Opcode)
}

func TestCPU_StackOverflow(t *testing.T) {
	// calls itself forever
	c := newTestCPU(t, 0x2200)
	steps(t, c, StackSize)
	assert.Equal(t, uint8(StackSize), c.SP())

	err := c.Step()
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, uint8(StackSize), c.SP())
}

func TestCPU_JumpV0(t *testing.T) {
	c := newTestCPU(t, 0x6004, 0xB300)
	steps(t, c, 2)
	assert.Equal(t, uint16(0x304), c.PC())
}

func TestCPU_Sys(t *testing.T) {
	c := newTestCPU(t, 0x0123)
	steps(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC())
}

func TestCPU_Skips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vx, vy uint8
		skip   bool
	}{
		{"SE byte equal", 0x3142, 0x42, 0, true},
		{"SE byte different", 0x3142, 0x41, 0, false},
		{"SNE byte equal", 0x4142, 0x42, 0, false},
		{"SNE byte different", 0x4142, 0x41, 0, true},
		{"SE reg equal", 0x5120, 0x07, 0x07, true},
		{"SE reg different", 0x5120, 0x07, 0x08, false},
		{"SE reg ignores low nibble", 0x512F, 0x07, 0x07, true},
		{"SNE reg equal", 0x9120, 0x07, 0x07, false},
		{"SNE reg different", 0x9120, 0x07, 0x08, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t, tt.opcode)
			c.V[1] = tt.vx
			c.V[2] = tt.vy
			steps(t, c, 1)

			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected += 2
			}
			assert.Equal(t, expected, c.PC())
		})
	}
}

func TestCPU_KeySkips(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint16
		pressed []string
		skip    bool
	}{
		{"SKP pressed", 0xE39E, []string{"E"}, true},
		{"SKP released", 0xE39E, nil, false},
		{"SKP other key", 0xE39E, []string{"Q"}, false},
		{"SKNP pressed", 0xE3A1, []string{"E"}, false},
		{"SKNP released", 0xE3A1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t, tt.opcode)
			c.V[3] = 0x6 // host key E
			c.Keyboard().Update(tt.pressed)
			steps(t, c, 1)

			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected += 2
			}
			assert.Equal(t, expected, c.PC())
		})
	}
}

func TestCPU_ALU(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint16
		vx, vy  uint8
		result  uint8
		vf      uint8
		keepsVF bool
	}{
		{"LD", 0x8120, 0x11, 0x22, 0x22, 0, true},
		{"OR", 0x8121, 0xF0, 0x0F, 0xFF, 0, true},
		{"AND", 0x8122, 0xF3, 0x3F, 0x33, 0, true},
		{"XOR", 0x8123, 0xFF, 0x0F, 0xF0, 0, true},
		{"ADD no carry", 0x8124, 0x02, 0x03, 0x05, 0, false},
		{"ADD carry", 0x8124, 0xFF, 0x02, 0x01, 1, false},
		{"ADD exactly 256", 0x8124, 0x80, 0x80, 0x00, 1, false},
		{"SUB no borrow", 0x8125, 0x05, 0x03, 0x02, 1, false},
		{"SUB equal", 0x8125, 0x05, 0x05, 0x00, 1, false},
		{"SUB borrow", 0x8125, 0x03, 0x05, 0xFE, 0, false},
		{"SHR odd", 0x8126, 0x05, 0xFF, 0x02, 1, false},
		{"SHR even", 0x8126, 0x04, 0xFF, 0x02, 0, false},
		{"SUBN no borrow", 0x8127, 0x03, 0x05, 0x02, 1, false},
		{"SUBN borrow", 0x8127, 0x05, 0x03, 0xFE, 0, false},
		{"SHL high bit", 0x812E, 0x81, 0x00, 0x02, 1, false},
		{"SHL no high bit", 0x812E, 0x41, 0x00, 0x82, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t, tt.opcode)
			c.V[1] = tt.vx
			c.V[2] = tt.vy
			c.V[0xF] = 0xAA
			steps(t, c, 1)

			assert.Equal(t, tt.result, c.V[1])
			if tt.keepsVF {
				assert.Equal(t, uint8(0xAA), c.V[0xF])
			} else {
				assert.Equal(t, tt.vf, c.V[0xF])
			}
		})
	}
}

func TestCPU_AddAllPairs(t *testing.T) {
	c := newTestCPU(t)
	for vx := 0; vx < 256; vx++ {
		for vy := 0; vy < 256; vy++ {
			c.V[1], c.V[2] = uint8(vx), uint8(vy)
			require.NoError(t, c.addReg(decode(0x8124)))
			require.Equal(t, uint8((vx+vy)%256), c.V[1])
			require.Equal(t, flag(vx+vy >= 256), c.V[0xF])

			c.V[1], c.V[2] = uint8(vx), uint8(vy)
			require.NoError(t, c.sub(decode(0x8125)))
			require.Equal(t, uint8((vx-vy+256)%256), c.V[1])
			require.Equal(t, flag(vx >= vy), c.V[0xF])
		}
	}
}

func TestCPU_FlagWinsOverVF(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vf, vy uint8
		result uint8
	}{
		{"ADD carry", 0x8F14, 0xFF, 0x01, 1},
		{"ADD no carry", 0x8F14, 0x01, 0x01, 0},
		{"SUB", 0x8F15, 0x01, 0x02, 0},
		{"SHR", 0x8F16, 0x03, 0, 1},
		{"SHL", 0x8F1E, 0x40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU(t, tt.opcode)
			c.V[0xF] = tt.vf
			c.V[1] = tt.vy
			steps(t, c, 1)
			assert.Equal(t, tt.result, c.V[0xF])
		})
	}
}

func TestCPU_LoadAndAddByte(t *testing.T) {
	c := newTestCPU(t, 0x65FE, 0x7503, 0xA123)
	c.V[0xF] = 0x07
	steps(t, c, 3)
	assert.Equal(t, uint8(0x01), c.V[5], "wraps")
	assert.Equal(t, uint8(0x07), c.V[0xF], "no flag")
	assert.Equal(t, uint16(0x123), c.I)
}

func TestCPU_Random(t *testing.T) {
	c := newTestCPU(t, 0xC10F, 0xC200)
	steps(t, c, 2)
	assert.Equal(t, uint8(0), c.V[1]&0xF0)
	assert.Equal(t, uint8(0), c.V[2])
}

func TestCPU_WaitForKey(t *testing.T) {
	c := newTestCPU(t, 0xF50A, 0x6101)

	for i := 0; i < 3; i++ {
		steps(t, c, 1)
		assert.True(t, c.AwaitingKey())
		assert.Equal(t, uint16(ProgramStart), c.PC())
	}

	c.Keyboard().Update([]string{"V", "C"})
	steps(t, c, 1)
	assert.False(t, c.AwaitingKey())
	assert.Equal(t, uint8(0xB), c.V[5], "lowest held key wins")
	assert.Equal(t, uint16(ProgramStart+2), c.PC())

	steps(t, c, 1)
	assert.Equal(t, uint8(1), c.V[1])
}

func TestCPU_WaitForKeyAlreadyHeld(t *testing.T) {
	c := newTestCPU(t, 0xF30A)
	c.Keyboard().Update([]string{"X"})
	steps(t, c, 1)
	assert.False(t, c.AwaitingKey())
	assert.Equal(t, uint8(0x0), c.V[3])
	assert.Equal(t, uint16(ProgramStart+2), c.PC())
}

func TestCPU_Timers(t *testing.T) {
	c := newTestCPU(t, 0x6102, 0xF118, 0xF115, 0xF207)
	steps(t, c, 3)
	assert.Equal(t, uint8(2), c.SoundTimer())
	assert.Equal(t, uint8(2), c.DelayTimer())

	var buzz []bool
	for i := 0; i < 3; i++ {
		buzz = append(buzz, c.TickTimers())
	}
	assert.Equal(t, []bool{true, true, false}, buzz)
	assert.Equal(t, uint8(0), c.SoundTimer())
	assert.Equal(t, uint8(0), c.DelayTimer())

	steps(t, c, 1)
	assert.Equal(t, uint8(0), c.V[2])
}

func TestCPU_IndexOps(t *testing.T) {
	c := newTestCPU(t, 0xAFFF, 0x6110, 0xF11E, 0x6A0A, 0xFA29, 0x61FF, 0xF129)
	steps(t, c, 3)
	assert.Equal(t, uint16(0x100F), c.I, "I is 16 bits wide")

	steps(t, c, 2)
	assert.Equal(t, uint16(0xA*GlyphSize), c.I)

	steps(t, c, 2)
	assert.Equal(t, uint16(0xF*GlyphSize), c.I)
}

func TestCPU_AddIWrapsAt16Bits(t *testing.T) {
	c := newTestCPU(t, 0xF11E)
	c.I = 0xFFFF
	c.V[1] = 2
	steps(t, c, 1)
	assert.Equal(t, uint16(0x0001), c.I)
}

func TestCPU_BCD(t *testing.T) {
	for _, tt := range []struct {
		value  uint8
		digits []byte
	}{
		{0, []byte{0, 0, 0}},
		{7, []byte{0, 0, 7}},
		{42, []byte{0, 4, 2}},
		{255, []byte{2, 5, 5}},
	} {
		c := newTestCPU(t, 0xA300, 0xF433)
		c.V[4] = tt.value
		steps(t, c, 2)
		assert.Equal(t, tt.digits, readMemory(c, 0x300, 3), "value %d", tt.value)
		assert.Equal(t, uint16(0x300), c.I)
	}
}

func TestCPU_StoreLoadRegisters(t *testing.T) {
	c := newTestCPU(t, 0xA300, 0xF355, 0xA400, 0xF265)
	for i := range c.V {
		c.V[i] = uint8(0x10 + i)
	}
	copy(c.memory[0x400:], []byte{0xA0, 0xA1, 0xA2, 0xA3})

	steps(t, c, 2)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x00}, readMemory(c, 0x300, 5), "inclusive of V3")
	assert.Equal(t, uint16(0x300), c.I)

	steps(t, c, 2)
	assert.Equal(t, uint8(0xA0), c.V[0])
	assert.Equal(t, uint8(0xA2), c.V[2])
	assert.Equal(t, uint8(0x13), c.V[3], "V3 untouched")
	assert.Equal(t, uint16(0x400), c.I)
}

func TestCPU_MemoryThroughIWraps(t *testing.T) {
	c := newTestCPU(t, 0xF155)
	c.I = 0xFFF
	c.V[0], c.V[1] = 0x12, 0x34
	steps(t, c, 1)
	assert.Equal(t, uint8(0x12), c.Memory(0xFFF))
	assert.Equal(t, uint8(0x34), c.Memory(0x000))
}

func TestCPU_String(t *testing.T) {
	c := newTestCPU(t)
	c.V[0xA] = 0x05
	assert.Equal(t, "pc=0x200 i=0x000 sp=0 dt=0 st=0 v=[00 00 00 00 00 00 00 00 00 00 05 00 00 00 00 00]", c.String())
}

func TestInstructionTable(t *testing.T) {
	assert.Len(t, instructions, 35)
	for _, ins := range instructions {
		assert.Equal(t, ins.pattern, ins.pattern&ins.mask, "%s pattern outside its mask", ins.name)
		matched, ok := lookup(ins.pattern)
		require.True(t, ok)
		assert.Equal(t, ins.name, matched.name)
		assert.Equal(t, ins.args, matched.args)
	}
}

func readMemory(c *CPU, addr uint16, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = c.Memory(addr + uint16(i))
	}
	return out
}
