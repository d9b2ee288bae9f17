package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Logs are discarded unless the test binary runs verbosely.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// CaptureLogs records every entry written to the standard logger for the rest
// of the test. Previously installed hooks are restored on cleanup.
func CaptureLogs(t *testing.T) *test.Hook {
	hook := new(test.Hook)
	original := logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	logrus.AddHook(hook)

	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(original)
	})
	return hook
}

// FindLogEntry returns the last captured entry with the given message.
func FindLogEntry(hook *test.Hook, message string) (*logrus.Entry, bool) {
	entries := hook.AllEntries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Message == message {
			return entries[i], true
		}
	}
	return nil, false
}
