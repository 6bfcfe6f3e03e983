package cmd

import (
	"errors"
	"fmt"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/retroenv/retrogolib/log"
)

// errReported marks an error that was logged already and must not be printed
// again on exit.
var errReported = errors.New("error already reported")

func newLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// reportFault logs a CPU fault with its details. Any other error is returned
// unchanged for Execute to print.
func reportFault(logger *log.Logger, err error) error {
	var fault *cpu.Fault
	if !errors.As(err, &fault) {
		return err
	}
	logger.Error("Program crashed",
		log.Err(fault.Kind),
		log.String("opcode", fmt.Sprintf("0x%04X", fault.Opcode)),
		log.String("address", fmt.Sprintf("0x%03X", fault.Address)),
	)
	return fmt.Errorf("%w: %w", errReported, err)
}
