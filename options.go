package gpuplot

import (
	"github.com/gogpu/gpuplot/gpucore"
	"github.com/gogpu/gpuplot/pick"
)

// Option configures a Plot during creation.
//
// Example:
//
//	// Default size, manual rendering
//	p, err := gpuplot.New(dev, reg)
//
//	// Host-driven frames
//	p, err := gpuplot.New(dev, reg, gpuplot.WithScheduler(loop))
type Option func(*options)

// options holds optional configuration for Plot creation.
type options struct {
	width, height int
	scheduler     Scheduler
	pick          pick.Strategy
	programCache  int
}

// defaultOptions returns the default plot options.
func defaultOptions() options {
	return options{
		width:        800,
		height:       600,
		pick:         pick.ColorChannels{},
		programCache: gpucore.DefaultProgramCacheSize,
	}
}

// WithSize sets the initial viewport size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithScheduler hands frame requests to s. Without a scheduler the host
// calls Render itself.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithPickStrategy replaces the color-channel pick encoding.
func WithPickStrategy(s pick.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.pick = s
		}
	}
}

// WithProgramCacheSize bounds the number of compiled programs kept
// across updates. Evicted programs are destroyed on the device.
func WithProgramCacheSize(n int) Option {
	return func(o *options) {
		o.programCache = n
	}
}
