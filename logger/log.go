package logger

import (
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

var debugFlag = flag.Bool("debug", false, "enable debug logging")

func init() {
	Init(debugEnabled())
}

func debugEnabled() bool {
	envDebug := strings.ToLower(os.Getenv("BOXFIT_DEBUG"))
	return len(envDebug) > 0 && !(envDebug == "disable" || envDebug == "false")
}

// Init rebuilds the global logger; main calls it again after flags are parsed.
func Init(debug bool) {
	debug = debug || *debugFlag || debugEnabled()

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	l, err := config.Build()
	if err != nil {
		log.Fatal(err)
	}

	zap.ReplaceGlobals(l)
	logger = zap.S()
}

func Debugw(msg string, keysAndValues ...interface{}) {
	logger.Debugw(msg, keysAndValues...)
}

func Debugf(template string, args ...interface{}) {
	logger.Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	logger.Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	logger.Warnf(template, args...)
}

func Sync() {
	_ = logger.Sync()
}
