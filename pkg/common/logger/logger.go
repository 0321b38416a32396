package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before Init; Init applies LOG_LEVEL and LOG_FORMAT.
var Log = logrus.New()

// Init writes JSON lines to stderr, or human-readable text when LOG_FORMAT=text,
// so stdout stays free for command output.
func Init() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	Log.SetLevel(logLevel)
}

// ForPatient tags every entry with the patient identifier being processed.
func ForPatient(patientID string) *logrus.Entry {
	return Log.WithField("patient_id", patientID)
}

// ForRun tags every entry with the batch run identifier.
func ForRun(runID string) *logrus.Entry {
	return Log.WithField("run_id", runID)
}
