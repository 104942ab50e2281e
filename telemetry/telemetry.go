// Package telemetry provides the structured, leveled logger threaded
// through the campaign harness and simulation driver, built on
// go-kit's logfmt logger.
package telemetry

import (
	"io"

	kitlog "github.com/go-kit/kit/log"
)

// New returns a logfmt logger writing to w, safe for concurrent use
// via go-kit's synchronized writer.
func New(w io.Writer) kitlog.Logger {
	return kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
}

// WithSubsystem tags every line the returned logger emits with a
// "subsys" key (cmd/ldrsim uses "ldrsim"; the campaign and sim
// packages add their own "campaign" and "sim" tags directly).
func WithSubsystem(logger kitlog.Logger, subsys string) kitlog.Logger {
	return kitlog.With(logger, "subsys", subsys)
}
