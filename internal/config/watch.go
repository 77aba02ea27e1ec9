package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch watches the server config file at path for write and create
// events and invokes onChange with the freshly reloaded config (with the
// environment overlay applied). Errors reloading the file are logged and
// the prior configuration is kept in force.
//
// Grounded on ehrlich-b-wingthing's go.mod, which pulls in fsnotify for
// exactly this live-reload purpose; what a reload changes is up to
// onChange (main.go applies the auth enabled flag and the rate-limit
// parameters; it does not change the accepted key set).
func Watch(path string, onChange func(Server)) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadFile(path)
				if err != nil {
					logrus.WithError(err).Warn("config: reload failed, keeping prior configuration")
					continue
				}
				onChange(EnvOverlay(cfg))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("config: watcher error")
			}
		}
	}()

	return w, nil
}
