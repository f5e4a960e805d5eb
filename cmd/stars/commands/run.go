package commands

import (
	"github.com/kektsukuba/stars/stars"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewRunCmd returns the command that starts a STARS server.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the STARS server",
		PreRunE: loadConfig,
		RunE:    runServer,
	}
	AddRunFlags(cmd)
	return cmd
}

// AddRunFlags adds the run command's flags.
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().Uint16P("port", "p", config.Port, "Listen port for the STARS server (overrides starsport)")
	cmd.Flags().String("libdir", config.Libdir, "Directory containing the Configuration Snapshot pattern files (overrides starslib)")
	cmd.Flags().String("keydir", config.Keydir, "Directory containing the server secret (overrides starskey)")
	cmd.Flags().DurationP("timeout", "t", config.ReadTimeout, "Registered-state read timeout (0 disables)")
	cmd.Flags().String("name", config.ServerName, "Server name used as the sender of System messages")
	cmd.Flags().String("log", config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("logfile", config.LogFile, "File to additionally mirror error/fatal log lines to")
}

func runServer(cmd *cobra.Command, args []string) error {
	engine := stars.New(config)

	if err := engine.Init(); err != nil {
		config.Logger().WithError(err).Error("failed to initialize server")
		return err
	}

	return engine.Run()
}

// flagToConfigKey maps each CLI flag to the INI key it overrides, per
// spec.md §6 ("--port (overrides config starsport)", "--libdir
// (overrides starslib)", "--keydir (overrides starskey)"). Flags with no
// INI counterpart bind under their own name.
var flagToConfigKey = map[string]string{
	"port":   "starsport",
	"libdir": "starslib",
	"keydir": "starskey",
}

// loadConfig binds the run command's flags into viper under the INI keys
// they override, reads an optional INI config file out of --libdir, and
// unmarshals the result into the package-level Config. Grounded on the
// teacher's bindFlagsLoadViper (cmd/babble/commands/run.go), adapted from
// TOML to INI since spec.md §6 specifies an INI runtime config file.
func loadConfig(cmd *cobra.Command, args []string) error {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if mapped, ok := flagToConfigKey[f.Name]; ok {
			key = mapped
		}
		_ = viper.BindPFlag(key, f)
	})

	if err := viper.Unmarshal(config); err != nil {
		return err
	}

	viper.SetConfigType("ini")
	viper.SetConfigName("stars")
	viper.AddConfigPath(config.Libdir)

	if err := viper.ReadInConfig(); err == nil {
		config.Logger().Debugf("using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		config.Logger().Debugf("no config file found in: %s", config.Libdir)
	} else {
		return err
	}

	return viper.Unmarshal(config)
}
