package eximg

import (
	log "github.com/dsoprea/go-logging"
)

// eximgLog is the package-level logger every component routes
// diagnostics through, gated by Control rather than emitted unconditionally.
var eximgLog = log.NewLogger("eximg")

// Control gates parse/serialize diagnostics and unknown-tag policy. It
// generalizes the teacher's Control (Unknown/Warn/ParsDbg/SrlzDbg) into a
// single struct shared by the codec and the container adapters.
type Control struct {
	// Unknown selects how an unrecognized tag is handled: Keep decodes
	// and stores it like a known tag, Remove drops it (logging a warning
	// when Warn is set), Stop aborts the parse.
	Unknown UnknownPolicy

	// Warn enables Warningf logging of tag format mismatches and of
	// unknown tags dropped under the Remove policy.
	Warn bool

	// ParseDebug and SerializeDebug enable Debugf offset/size tracing.
	ParseDebug     bool
	SerializeDebug bool
}

// UnknownPolicy mirrors the teacher's Keep/Remove/Stop bitmask constants.
type UnknownPolicy uint

const (
	Keep UnknownPolicy = iota
	Remove
	Stop
)

// DefaultControl returns the zero-value-safe default: keep unknown tags,
// no diagnostic logging.
func DefaultControl() *Control {
	return &Control{Unknown: Keep}
}

func (c *Control) warnf(format string, args ...interface{}) {
	if c != nil && c.Warn {
		eximgLog.Warningf(nil, format, args...)
	}
}

func (c *Control) parseDebugf(format string, args ...interface{}) {
	if c != nil && c.ParseDebug {
		eximgLog.Debugf(nil, format, args...)
	}
}

func (c *Control) serializeDebugf(format string, args ...interface{}) {
	if c != nil && c.SerializeDebug {
		eximgLog.Debugf(nil, format, args...)
	}
}
