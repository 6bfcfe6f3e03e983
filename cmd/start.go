package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/beanboi7/chyp8/config"
	"github.com/beanboi7/chyp8/emu"
	"github.com/beanboi7/chyp8/emu/audio"
	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/screen/terminal"
	"github.com/beanboi7/chyp8/emu/screen/window"
	"github.com/faiface/pixel/pixelgl"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var startCmd = &cobra.Command{
	Use:   "start path/ROM",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

// chyp8 start 'path/to/ROM' -c 700
func Start(cmd *cobra.Command, args []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Debug, cfg.Quiet)
	logger.Info("chyp8", log.String("version", buildinfo.Version(version, commit, date)))

	rom, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading rom: %w", err)
	}

	opts := []cpu.Option{cpu.WithLayout(cfg.Keymap)}
	if cfg.Seed != 0 {
		opts = append(opts, cpu.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	c := cpu.New(opts...)
	if err := c.LoadROM(rom); err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}
	logger.Debug("ROM loaded", log.String("path", args[0]), log.Int("size", len(rom)))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func() error {
		return runEmulator(ctx, cfg, c, logger, args[0])
	}
	if cfg.Frontend == config.Terminal {
		return run()
	}

	// the window has to be driven from the main OS thread
	var runErr error
	pixelgl.Run(func() {
		runErr = run()
	})
	return runErr
}

func runEmulator(ctx context.Context, cfg config.Config, c *cpu.CPU, logger *log.Logger, title string) error {
	frontend, err := newFrontend(cfg, c, title)
	if err != nil {
		return err
	}
	defer frontend.Close()

	buzzer := newBuzzer(cfg, logger)
	defer buzzer.Close()

	e, err := emu.NewEMU(c, frontend, buzzer, cfg.Clock, logger)
	if err != nil {
		return err
	}

	return reportFault(logger, e.Run(ctx))
}

func newFrontend(cfg config.Config, c *cpu.CPU, title string) (emu.Frontend, error) {
	keys := c.Keyboard().HostKeys()
	if cfg.Frontend == config.Terminal {
		t, err := terminal.New(keys)
		if err != nil {
			return nil, fmt.Errorf("initializing terminal: %w", err)
		}
		return t, nil
	}

	w, err := window.New("chyp8 - "+title, cfg.Scale, keys)
	if err != nil {
		return nil, fmt.Errorf("initializing window: %w", err)
	}
	return w, nil
}

// newBuzzer falls back to silence when no audio device can be used.
func newBuzzer(cfg config.Config, logger *log.Logger) emu.Buzzer {
	if cfg.Mute {
		return audio.Mute{}
	}

	var (
		b   *audio.Beeper
		err error
	)
	if cfg.Beep != "" {
		b, err = audio.NewMP3(cfg.Beep)
	} else {
		b, err = audio.NewTone(cfg.Tone)
	}
	if err != nil {
		logger.Warn("Sound disabled", log.Err(err))
		return audio.Mute{}
	}
	return b
}

func init() {
	rootCmd.AddCommand(startCmd)

	flags := startCmd.Flags()
	flags.IntP("clock", "c", 700, "CPU instructions per second")
	flags.StringP("frontend", "f", config.Window, "frontend to use: window or terminal")
	flags.IntP("scale", "s", 10, "window pixels per CHIP-8 pixel")
	flags.BoolP("mute", "m", false, "disable the buzzer")
	flags.Float64("tone", 440, "buzzer frequency in Hz")
	flags.String("beep", "", "mp3 file played instead of the generated tone")
	flags.Int64("seed", 0, "random number seed, 0 picks one from the clock")

	for _, name := range []string{"clock", "frontend", "scale", "mute", "tone", "beep", "seed"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}
}
