package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/beanboi7/chyp8/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "chyp8 [command]",
	Short:         "Chip-8 emulator using Go",
	Long:          "A Chip-8 emulator written from scratch that mimics the functionalities of a Chip-8, an interpretted language originally written for the COSMAC VIP / Telmac 8 bit systems.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chyp8.yaml)")
	flags.Bool("debug", false, "enable debug logging, traces every executed instruction")
	flags.BoolP("quiet", "q", false, "only log errors")
	cobra.CheckErr(viper.BindPFlag("debug", flags.Lookup("debug")))
	cobra.CheckErr(viper.BindPFlag("quiet", flags.Lookup("quiet")))

	config.SetDefaults(viper.GetViper())
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	used, err := config.Read(viper.GetViper(), cfgFile)
	cobra.CheckErr(err)
	if used != "" && !viper.GetBool("quiet") {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}
