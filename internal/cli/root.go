package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer = "http://localhost:8080"
	envPrefix     = "LYRICS"
)

// NewRootCommand builds the lyricsctl command tree with its own viper instance
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "lyricsctl",
		Short:         "lyricsctl streams song lyrics from a lyrics API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lyricsctl.yaml)")
	root.PersistentFlags().String("server", defaultServer, "lyrics API base URL")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))

	root.AddCommand(newGenerateCommand(v), newHealthCommand(v))
	return root
}

// Execute runs lyricsctl and exits non-zero on error
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".lyricsctl")
		v.SetConfigType("yaml")
	}
	// The default config file is optional
	_ = v.ReadInConfig()
	return nil
}
