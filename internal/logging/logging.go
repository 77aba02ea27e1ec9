// Package logging performs the process-global, single-initialization
// logrus setup, grounded on jesseduffield-lazydocker's go.mod and the
// blaxel-ai-sandbox reference file's logrus.Errorf/Infof usage for the
// same "log session/PTY lifecycle events" concern this gateway has.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var once sync.Once

// Init configures the global logrus logger from a textual level
// ("debug", "info", "warn", "error"), defaulting to info on an unknown or
// empty value. Safe to call more than once; only the first call takes
// effect, matching §5's "process-global, single initialization" rule.
func Init(level string) {
	once.Do(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		logrus.SetLevel(lvl)
	})
}
