package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger
var solverLogger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: false,
	})
	logger.SetLevel(logrus.InfoLevel)

	solverLogger = logrus.New()
	solverLogger.SetOutput(os.Stdout)
	solverLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: false,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "time",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "solver_msg",
		},
	})
	solverLogger.SetLevel(logrus.WarnLevel)
}

func GetLogger() *logrus.Logger {
	return logger
}

// GetSolverLogger returns the logger used for per-trial solver diagnostics.
// It defaults to warn so sweeps with millions of trials stay quiet.
func GetSolverLogger() *logrus.Logger {
	return solverLogger
}

func SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(logLevel)
	return nil
}

func SetSolverLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	solverLogger.SetLevel(logLevel)
	return nil
}

func SetFormatter(formatter logrus.Formatter) {
	logger.SetFormatter(formatter)
}
