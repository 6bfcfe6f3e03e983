// Package emu runs a CHIP-8 CPU in real time: it clocks instructions and
// timers, feeds the keypad and shows the screen through a Frontend.
package emu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/retroenv/retrogolib/log"
)

const (
	TimerRate = 60 //Hz, fixed by the CHIP-8
	FrameRate = 60 //Hz, input polling and presentation
)

// Frontend shows the screen and reports which host keys are held.
type Frontend interface {
	Pressed() []string
	Present(fb screen.Framebuffer)
	Closed() bool
	Close() error
}

// Buzzer sounds while the sound timer runs.
type Buzzer interface {
	Buzz(on bool)
	Close() error
}

type EMU struct {
	cpu        *cpu.CPU
	frontend   Frontend
	buzzer     Buzzer
	clockSpeed int //instructions per second
	logger     *log.Logger
}

func NewEMU(c *cpu.CPU, frontend Frontend, buzzer Buzzer, clockSpeed int, logger *log.Logger) (*EMU, error) {
	if clockSpeed <= 0 {
		return nil, errors.New("clock speed must be positive")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}
	return &EMU{
		cpu:        c,
		frontend:   frontend,
		buzzer:     buzzer,
		clockSpeed: clockSpeed,
		logger:     logger,
	}, nil
}

// Run executes the program until the frontend is closed, ctx is cancelled or
// the CPU faults. A fault is returned as the *cpu.Fault from Step.
func (emu *EMU) Run(ctx context.Context) error {
	cpuClock := time.NewTicker(time.Second / time.Duration(emu.clockSpeed))
	defer cpuClock.Stop()
	timerClock := time.NewTicker(time.Second / TimerRate)
	defer timerClock.Stop()
	frameClock := time.NewTicker(time.Second / FrameRate)
	defer frameClock.Stop()
	defer emu.buzzer.Buzz(false)

	emu.logger.Debug("Running", log.Int("clock", emu.clockSpeed))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-cpuClock.C:
			if err := emu.EmulateCycle(); err != nil {
				emu.logger.Debug("Machine state at fault", log.Stringer("cpu", emu.cpu))
				return err
			}

		case <-timerClock.C:
			emu.TickTimers()

		case <-frameClock.C:
			if emu.frontend.Closed() {
				return nil
			}
			emu.Refresh()
		}
	}
}

// EmulateCycle runs one CPU step, tracing it at debug level. Polling for a
// key is not traced.
func (emu *EMU) EmulateCycle() error {
	if emu.cpu.AwaitingKey() {
		return emu.cpu.Step()
	}

	pc := emu.cpu.PC()
	err := emu.cpu.Step()
	if err == nil {
		opcode := emu.cpu.Opcode()
		emu.logger.Debug("Step",
			log.String("pc", fmt.Sprintf("0x%03X", pc)),
			log.String("opcode", fmt.Sprintf("0x%04X", opcode)),
			log.Stringer("asm", mnemonic(opcode)),
		)
	}
	return err
}

// mnemonic disassembles only when the trace is written.
type mnemonic uint16

func (m mnemonic) String() string {
	return cpu.Disassemble(uint16(m))
}

// TickTimers counts the CPU timers down and switches the buzzer accordingly.
func (emu *EMU) TickTimers() {
	emu.buzzer.Buzz(emu.cpu.TickTimers())
}

// Refresh hands the held keys to the keypad and presents the screen if it
// changed since the last frame.
func (emu *EMU) Refresh() {
	emu.cpu.Keyboard().Update(emu.frontend.Pressed())

	display := emu.cpu.Display()
	if !display.NeedsRedraw() {
		return
	}
	emu.frontend.Present(display.Framebuffer())
	display.Presented()
}
