// Package monitor is the Go analogue of original_source/src/visualization.rs:
// where the Rust implementation fed its ServerEvent stream to a Bevy
// node-graph GUI, this package drains the same stream (router.Event)
// into structured log lines, the observability idiom the teacher
// (mosaicnetworks/babble) uses throughout via sirupsen/logrus. No
// windowing/game-engine toolkit in the retrieved Go dependency pack is
// suited to a headless TCP service, so the node graph itself is not
// reproduced; the event stream that fed it is.
package monitor

import (
	"github.com/kektsukuba/stars/router"
	"github.com/sirupsen/logrus"
)

// Run drains events until the channel is closed, logging one structured
// line per event. It is started in its own goroutine by the engine
// wiring layer (stars.Server) and exits when events is closed; the
// engine wiring layer never closes that channel, so in a running server
// Run lasts until the process exits.
func Run(events <-chan router.Event, log *logrus.Entry) {
	for ev := range events {
		entry := log.WithField("event", string(ev.Kind))
		switch ev.Kind {
		case router.EventNodeConnected, router.EventNodeDisconnected:
			entry.WithField("name", ev.Name).Info("node graph update")
		case router.EventMessageRouted:
			entry.WithFields(logrus.Fields{"from": ev.From, "to": ev.To}).Debug("message routed")
		}
	}
}
