// Package profile gates runtime profiling behind the pprof build tag.
// Without the tag, every operation is a safe no-op so callers never need
// conditional compilation of their own.
package profile

// Config holds the supported profiling parameters.
type Config struct {
	Mode string // profiler mode, empty to disable
	Dir  string // output directory for profile data
}

// Start initializes the profiler and returns an interface for stopping
// it. If the pprof build tag or Mode is unset, Start returns a no-op
// implementation. Both Start and Stop are always safely callable.
func (c Config) Start() interface{ Stop() } {
	if c.Mode == "" {
		return ignore{}
	}

	return start(c.Mode, c.Dir)
}

type ignore struct{}

func (ignore) Stop() {}
