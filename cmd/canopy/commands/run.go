package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/arborworks/canopy/src/canopy"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRunCmd returns the command that starts a canopy node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runCanopy,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runCanopy(cmd *cobra.Command, args []string) error {
	engine := canopy.NewCanopy(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	// Flush resident trees and close the store on interrupt.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalChan

		_config.Logger().Info("Received an interrupt, stopping services")

		if err := engine.Shutdown(); err != nil {
			_config.Logger().Error("Error during shutdown:", err)
			os.Exit(1)
		}

		os.Exit(0)
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

// AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Duplicate log output to this file")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")

	// Store
	cmd.Flags().String("store", _config.Backend, "Store backend: inmem, badger, or leveldb")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().Int("max-depth", _config.MaxDepth, "Depth of newly created trees (capacity 2^depth)")

	// Submission
	cmd.Flags().String("rpc-addr", _config.RPCAddr, "Address of the remote RPC endpoint")
	cmd.Flags().Bool("no-simulation", _config.NoSimulation, "Skip the pre-flight dry run of submissions")
	cmd.Flags().Duration("window", _config.WindowSize, "Trailing window of the submission rate limiter")
	cmd.Flags().Int("max-requests", _config.MaxRequests, "Submissions admitted per window")
	cmd.Flags().Int("max-attempts", _config.MaxAttempts, "Max send attempts per submission")
	cmd.Flags().Duration("base-delay", _config.BaseDelay, "Backoff delay after the first failed attempt")
	cmd.Flags().Duration("max-delay", _config.MaxDelay, "Backoff delay cap")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	_config.Logger().WithFields(logrus.Fields{
		"DataDir":      _config.DataDir,
		"ServiceAddr":  _config.ServiceAddr,
		"NoService":    _config.NoService,
		"Backend":      _config.Backend,
		"DatabaseDir":  _config.DatabaseDir,
		"MaxDepth":     _config.MaxDepth,
		"RPCAddr":      _config.RPCAddr,
		"NoSimulation": _config.NoSimulation,
		"WindowSize":   _config.WindowSize,
		"MaxRequests":  _config.MaxRequests,
		"MaxAttempts":  _config.MaxAttempts,
		"BaseDelay":    _config.BaseDelay,
		"MaxDelay":     _config.MaxDelay,
		"LogLevel":     _config.LogLevel,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/canopy.toml (.json, .yaml also work)
	viper.SetConfigName("canopy")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
