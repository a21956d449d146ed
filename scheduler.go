package gpuplot

// Scheduler runs frames for a plot. RequestFrame must call frame exactly
// once, later, from the host's frame loop; it must not call it before
// returning.
type Scheduler interface {
	RequestFrame(frame func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(frame func())

// RequestFrame implements Scheduler.
func (f SchedulerFunc) RequestFrame(frame func()) { f(frame) }

// FrameQueue is a Scheduler for hosts without their own frame loop: it
// holds requested frames until Flush runs them.
type FrameQueue struct {
	frames []func()
}

// RequestFrame implements Scheduler.
func (q *FrameQueue) RequestFrame(frame func()) {
	q.frames = append(q.frames, frame)
}

// Pending returns the number of queued frames.
func (q *FrameQueue) Pending() int { return len(q.frames) }

// Flush runs the queued frames in request order. Frames requested while
// flushing run on the next Flush.
func (q *FrameQueue) Flush() int {
	frames := q.frames
	q.frames = nil
	for _, f := range frames {
		f()
	}
	return len(frames)
}
