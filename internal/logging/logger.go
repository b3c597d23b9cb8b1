package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
}

// Setup configures the standard logrus logger.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	log.SetLevel(GetLevel(params.LogLevel))
	log.SetOutput(Output(params))
}

// Output returns the writer described by params: stdout alone, a rotating
// file, or both.
func Output(params LoggerSetupParams) io.Writer {
	if params.LogFileName == "" {
		return os.Stdout
	}

	name := params.LogFileName
	if !strings.HasSuffix(name, ".log") {
		name += ".log"
	}

	file := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		LocalTime:  false,
		Compress:   true,
	}
	if params.LogToStdout {
		return io.MultiWriter(os.Stdout, file)
	}
	return file
}

func GetLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	case "trace":
		return log.TraceLevel
	case "warn", "warning":
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}
