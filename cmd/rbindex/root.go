package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"rbindex/config"
)

var v = config.New()

var RootCmd = &cobra.Command{
	Use:   "rbindex",
	Short: "red-black tree ordered index",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "config file (yaml)")
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("log-level", "info", "log level")
	RootCmd.PersistentFlags().String("log-dir", "", "also write json logs to this directory")

	if err := v.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Errorf("failed to bind persistent flags. please check the flag settings.")
	}
	mustBind(RootCmd.PersistentFlags(), "log.level", "log-level")
	mustBind(RootCmd.PersistentFlags(), "log.dir", "log-dir")
}

// mustBind maps a flag onto a nested config key.
func mustBind(flags *pflag.FlagSet, key, flag string) {
	f := flags.Lookup(flag)
	if f == nil {
		panic("unknown flag " + flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, v.GetString("config"))
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Log, v.GetBool("debug")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig, debug bool) error {
	log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if cfg.Dir != "" {
		path := filepath.Join(cfg.Dir, "rbindex.log")
		log.AddHook(lfshook.NewHook(lfshook.PathMap{
			log.DebugLevel: path,
			log.InfoLevel:  path,
			log.WarnLevel:  path,
			log.ErrorLevel: path,
			log.FatalLevel: path,
			log.PanicLevel: path,
		}, &log.JSONFormatter{}))
	}
	return nil
}
