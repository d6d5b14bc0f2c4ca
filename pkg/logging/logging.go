// Package logging wires up structured logging for the engine and its
// collaborators.
package logging

import "github.com/sirupsen/logrus"

// New returns a logrus.Logger configured for the engine. When enabled
// is false, the level is raised above Fatal so nothing is emitted.
func New(enabled bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if !enabled {
		log.SetLevel(logrus.PanicLevel)
	}
	return log
}
