package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "semgrepd"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	addrFlagName     = "addr"
	rulesFlagName    = "rules"
	engineFlagName   = "engine"
	verboseFlagName  = "verbose"
	jsonFlagName     = "json"
	plainFlagName    = "plain"
	exitCodeFlagName = "exit-code"
	rulesetFlagName  = "rules-config"

	serverAddrKey            = "server.addr"
	serverMaxBodyBytesKey    = "server.max_body_bytes"
	serverShutdownTimeoutKey = "server.shutdown_timeout"

	engineBinaryKey         = "engine.binary"
	engineScanTimeoutKey    = "engine.scan_timeout"
	engineVersionTimeoutKey = "engine.version_timeout"
	engineMaxConcurrentKey  = "engine.max_concurrent"

	rulesPathKey     = "rules.path"
	workspaceRootKey = "workspace.root"

	defaultServerAddr      = ":8000"
	defaultMaxBodyBytes    = 10 << 20
	defaultShutdownTimeout = time.Second * 10

	defaultEngineBinary        = "semgrep"
	defaultScanTimeout         = time.Second * 60
	defaultVersionTimeout      = time.Second * 10
	defaultEngineMaxConcurrent = 4

	rulesFileName = "rules.yml"

	envPrefix = "SEMGREPD"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".semgrepd.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(serverAddrKey, defaultServerAddr)
	viper.SetDefault(serverMaxBodyBytesKey, int64(defaultMaxBodyBytes))
	viper.SetDefault(serverShutdownTimeoutKey, int64(defaultShutdownTimeout.Seconds()))
	viper.SetDefault(engineBinaryKey, defaultEngineBinary)
	viper.SetDefault(engineScanTimeoutKey, int64(defaultScanTimeout.Seconds()))
	viper.SetDefault(engineVersionTimeoutKey, int64(defaultVersionTimeout.Seconds()))
	viper.SetDefault(engineMaxConcurrentKey, defaultEngineMaxConcurrent)
	viper.SetDefault(rulesPathKey, defaultRulesPath())
	viper.SetDefault(workspaceRootKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// defaultRulesPath resolves the bundled rules file next to the executable,
// falling back to the working directory when the executable path is unknown.
func defaultRulesPath() string {
	executable, err := os.Executable()
	if err != nil {
		return rulesFileName
	}

	return filepath.Join(filepath.Dir(executable), rulesFileName)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// Records go to a rotating log file so command output and the HTTP
// access log stay separate from stdout. By default it logs at Info;
// if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
