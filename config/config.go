// Package config reads the emulator settings from flags, environment and an
// optional config file through viper.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/beanboi7/chyp8/emu/keyboard"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Frontend names.
const (
	Window   = "window"
	Terminal = "terminal"
)

const (
	maxClock  = 100000
	maxScale  = 64
	envPrefix = "chyp8"
	fileName  = ".chyp8"
)

type Config struct {
	Clock    int    //CPU instructions per second
	Frontend string //Window or Terminal
	Scale    int    //window pixels per CHIP-8 pixel
	Mute     bool
	Tone     float64 //buzzer frequency in Hz
	Beep     string  //mp3 played instead of the tone
	Seed     int64   //RND seed, 0 picks one from the clock
	Keymap   keyboard.Layout
	Debug    bool
	Quiet    bool
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("clock", 700)
	v.SetDefault("frontend", Window)
	v.SetDefault("scale", 10)
	v.SetDefault("mute", false)
	v.SetDefault("tone", 440.0)
	v.SetDefault("beep", "")
	v.SetDefault("seed", 0)
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
}

// Read points v at cfgFile, or at ~/.chyp8.* when cfgFile is empty, and
// reads it along with CHYP8_* environment variables. A missing default config
// file is not an error. It returns the file that was used, if any.
func Read(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		v.AddConfigPath(home)
		v.SetConfigName(fileName)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Decode builds and validates a Config from v.
func Decode(v *viper.Viper) (Config, error) {
	cfg := Config{
		Clock:    v.GetInt("clock"),
		Frontend: v.GetString("frontend"),
		Scale:    v.GetInt("scale"),
		Mute:     v.GetBool("mute"),
		Tone:     v.GetFloat64("tone"),
		Beep:     v.GetString("beep"),
		Seed:     v.GetInt64("seed"),
		Keymap:   keyboard.DefaultLayout,
		Debug:    v.GetBool("debug"),
		Quiet:    v.GetBool("quiet"),
	}

	if v.IsSet("keymap") {
		keymap, err := decodeKeymap(v.GetStringMapString("keymap"))
		if err != nil {
			return Config{}, err
		}
		cfg.Keymap = keymap
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// keymap values may be written in decimal or with a 0x prefix
func decodeKeymap(m map[string]string) (keyboard.Layout, error) {
	layout := make(keyboard.Layout, len(m))
	for name, value := range m {
		key, err := strconv.ParseUint(value, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("keymap entry %q: %w", name, err)
		}
		layout[name] = uint8(key)
	}
	return layout, nil
}

func (c Config) Validate() error {
	if c.Clock < 1 || c.Clock > maxClock {
		return fmt.Errorf("clock %d out of range 1-%d", c.Clock, maxClock)
	}
	if c.Scale < 1 || c.Scale > maxScale {
		return fmt.Errorf("scale %d out of range 1-%d", c.Scale, maxScale)
	}
	if c.Frontend != Window && c.Frontend != Terminal {
		return fmt.Errorf("unsupported frontend %q, valid options: %s, %s", c.Frontend, Window, Terminal)
	}
	if c.Tone <= 0 {
		return fmt.Errorf("tone %v must be positive", c.Tone)
	}
	if len(c.Keymap) == 0 {
		return errors.New("keymap is empty")
	}
	return c.Keymap.Validate()
}
