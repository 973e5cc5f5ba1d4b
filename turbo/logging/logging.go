package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logConsoleVerbosityFlag = "log.console.verbosity"
	logDirVerbosityFlag     = "log.dir.verbosity"
	logDirPathFlag          = "log.dir.path"
	logDirPrefixFlag        = "log.dir.prefix"
	logVerbosityFlag        = "verbosity"
	logDirDisableFlag       = "log.dir.disable"
)

// AddFlags registers the logging flags shared by every akulatoolbox
// subcommand onto cmd's persistent flag set.
func AddFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String(logConsoleVerbosityFlag, "", "console log level (crit|error|warn|info|debug|trace)")
	f.String(logDirVerbosityFlag, "", "log file level (crit|error|warn|info|debug|trace)")
	f.String(logVerbosityFlag, "", "fallback console log level when log.console.verbosity is unset")
	f.String(logDirPathFlag, "", "directory for log files (disabled if empty)")
	f.String(logDirPrefixFlag, "", "filename prefix for log files")
	f.Bool(logDirDisableFlag, false, "disable file logging even if log.dir.path is set")
}

// SetupLoggerCmd configures the root logger from cmd's flags and
// returns it. filePrefix names the log file when file logging is
// enabled and the user did not override it with log.dir.prefix.
func SetupLoggerCmd(filePrefix string, cmd *cobra.Command) log.Logger {
	flags := cmd.Flags()

	dirDisabled, _ := flags.GetBool(logDirDisableFlag)

	consoleLevel := log.LvlInfo
	if v, err := flags.GetString(logConsoleVerbosityFlag); err == nil && v != "" {
		if lvl, lErr := tryGetLogLevel(v); lErr == nil {
			consoleLevel = lvl
		}
	} else if v, err := flags.GetString(logVerbosityFlag); err == nil && v != "" {
		if lvl, lErr := tryGetLogLevel(v); lErr == nil {
			consoleLevel = lvl
		}
	}

	dirLevel := log.LvlInfo
	if v, err := flags.GetString(logDirVerbosityFlag); err == nil && v != "" {
		if lvl, lErr := tryGetLogLevel(v); lErr == nil {
			dirLevel = lvl
		}
	}

	dirPath := ""
	if !dirDisabled {
		dirPath, _ = flags.GetString(logDirPathFlag)
		if prefix, err := flags.GetString(logDirPrefixFlag); err == nil && prefix != "" {
			filePrefix = prefix
		}
	}

	initSeparatedLogging(log.Root(), filePrefix, dirPath, consoleLevel, dirLevel)
	return log.Root()
}

// initSeparatedLogging builds a console handler plus, when dirPath is
// non-empty, a rotating file handler backed by lumberjack, and installs
// both on logger.
func initSeparatedLogging(logger log.Logger, filePrefix, dirPath string, consoleLevel, dirLevel log.Lvl) {
	format := log.TerminalFormatNoColor()
	consoleHandler := log.LvlFilterHandler(consoleLevel, log.StreamHandler(os.Stderr, format))
	logger.SetHandler(consoleHandler)

	if dirPath == "" {
		logger.Info("console logging only")
		return
	}

	if err := os.MkdirAll(dirPath, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "dir", dirPath, "err", err)
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dirPath, fmt.Sprintf("%s.log", filePrefix)),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	mux := log.MultiHandler(consoleHandler, log.LvlFilterHandler(dirLevel, log.StreamHandler(rotating, log.TerminalFormatNoColor())))
	logger.SetHandler(mux)
	logger.Info("logging to file system", "dir", dirPath, "prefix", filePrefix, "level", dirLevel)
}

func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		n, aErr := strconv.Atoi(s)
		if aErr != nil {
			return 0, err
		}
		return log.Lvl(n), nil
	}
	return lvl, nil
}
