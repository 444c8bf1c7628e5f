// Package simulator runs simulated workers against a
// virtual clock.
//
// Workers run as Goroutines and block on EventStreams.
// The clock only moves while every worker is blocked, so
// real computation takes no virtual time unless a worker
// charges for it with Handle.Sleep.
package simulator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/unixpickle/essentials"
)

// An EventStream carries events in one direction through
// an EventLoop.
//
// A stream belongs to the loop that created it.
type EventStream struct {
	loop    *EventLoop
	pending []interface{}
}

// An Event is a message received on an EventStream.
type Event struct {
	Message interface{}
	Stream  *EventStream
}

// A Timer is a pending delivery of an Event at a virtual
// time.
type Timer struct {
	time  float64
	event *Event
}

// Time returns the virtual time at which the Timer fires.
func (t *Timer) Time() float64 {
	return t.time
}

// A Handle is one worker's access to an EventLoop.
// A Handle must not be shared between Goroutines.
type Handle struct {
	*EventLoop

	// Set while the worker is blocked in Poll.
	pollStreams []*EventStream
	pollChan    chan<- *Event
}

// Poll blocks until one of the streams has an event.
//
// Events that are already queued are returned right away,
// preferring earlier streams in the argument list.
func (h *Handle) Poll(streams ...*EventStream) *Event {
	ch := make(chan *Event, 1)
	h.modifyHandles(func() {
		if h.pollStreams != nil {
			panic("Handle is shared between Goroutines")
		}
		if event := takePending(streams); event != nil {
			ch <- event
			return
		}
		h.pollStreams = streams
		h.pollChan = ch
	})
	return <-ch
}

// takePending dequeues the first queued event on the
// first stream that has one.
func takePending(streams []*EventStream) *Event {
	for _, stream := range streams {
		if len(stream.pending) == 0 {
			continue
		}
		msg := stream.pending[0]
		essentials.OrderedDelete(&stream.pending, 0)
		return &Event{Message: msg, Stream: stream}
	}
	return nil
}

// Schedule delivers msg on stream after delay units of
// virtual time.
func (h *Handle) Schedule(stream *EventStream, msg interface{}, delay float64) *Timer {
	if stream.loop != h.EventLoop {
		panic("EventStream is not associated with the correct EventLoop")
	}
	var timer *Timer
	h.modify(func() {
		timer = &Timer{
			time:  h.time + delay,
			event: &Event{Message: msg, Stream: stream},
		}
		if math.IsInf(timer.time, 0) || math.IsNaN(timer.time) {
			panic(fmt.Sprintf("invalid deadline: %f", timer.time))
		}
		h.timers = append(h.timers, timer)
	})
	return timer
}

// Cancel removes a Timer that has not fired yet.
// Cancelling a fired Timer has no effect.
func (h *Handle) Cancel(t *Timer) {
	h.modify(func() {
		for i, timer := range h.timers {
			if timer == t {
				essentials.UnorderedDelete(&h.timers, i)
				return
			}
		}
	})
}

// Float64 draws a number in [0, 1) from the loop's
// random source.
func (h *Handle) Float64() float64 {
	var res float64
	h.modify(func() {
		res = h.rng.Float64()
	})
	return res
}

// Sleep blocks the worker for delay units of virtual
// time.
func (h *Handle) Sleep(delay float64) {
	stream := h.Stream()
	h.Schedule(stream, nil, delay)
	h.Poll(stream)
}

// An EventLoop owns the virtual clock of a simulation.
//
// Workers must be started with Go.
// The loop only fires a Timer once every worker is
// blocked in Poll.
type EventLoop struct {
	lock    sync.Mutex
	timers  []*Timer
	handles []*Handle

	time float64
	rng  *rand.Rand

	running  bool
	notifyCh chan struct{}
}

// NewEventLoop creates an event loop seeded from the
// wall clock.
//
// The clock starts at 0.
func NewEventLoop() *EventLoop {
	return NewEventLoopSeed(time.Now().UnixNano())
}

// NewEventLoopSeed creates an event loop whose tie-breaking
// and random network delays are drawn from a generator
// seeded with seed.
//
// Two runs with the same seed and the same sequence of
// scheduling calls deliver events in the same order.
func NewEventLoopSeed(seed int64) *EventLoop {
	return &EventLoop{
		rng:      rand.New(rand.NewSource(seed)),
		notifyCh: make(chan struct{}, 1),
	}
}

// Stream creates a new EventStream.
func (e *EventLoop) Stream() *EventStream {
	return &EventStream{loop: e}
}

// Go starts a worker with its own Handle.
func (e *EventLoop) Go(f func(h *Handle)) {
	h := &Handle{EventLoop: e}
	e.modify(func() {
		e.handles = append(e.handles, h)
	})
	go func() {
		f(h)
		e.modifyHandles(func() {
			e.release(h)
		})
	}()
}

func (e *EventLoop) release(h *Handle) {
	for i, handle := range e.handles {
		if handle == h {
			essentials.UnorderedDelete(&e.handles, i)
			return
		}
	}
	panic("cannot free handle that does not exist")
}

// Run fires Timers until every worker has returned.
//
// It returns an error if every remaining worker is
// blocked and no Timer can wake any of them.
func (e *EventLoop) Run() error {
	e.modify(func() {
		if e.running {
			panic("EventLoop is already running.")
		}
		e.running = true
	})
	defer e.modify(func() {
		e.running = false
	})

	for range e.notifyCh {
		if more, err := e.step(); !more {
			return err
		}
	}
	panic("unreachable")
}

// Time returns the current virtual time.
func (e *EventLoop) Time() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.time
}

// modify runs f under the loop lock.
// f must not change which workers are polling.
func (e *EventLoop) modify(f func()) {
	e.lock.Lock()
	defer e.lock.Unlock()
	f()
}

// modifyHandles is like modify, but f may block or wake
// workers, so the loop is notified afterwards.
func (e *EventLoop) modifyHandles(f func()) {
	e.lock.Lock()
	defer func() {
		e.lock.Unlock()
		select {
		case e.notifyCh <- struct{}{}:
		default:
		}
	}()
	f()
}

// step fires Timers until one of them wakes a worker.
//
// The first return value is false once the loop is done,
// in which case the error reports a deadlock, if any.
func (e *EventLoop) step() (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.handles) == 0 {
		return false, nil
	}
	for _, h := range e.handles {
		if len(h.pollStreams) == 0 {
			// A worker is still running in real time.
			return true, nil
		}
	}

	for len(e.timers) > 0 {
		timer := e.popTimer()
		e.time = math.Max(e.time, timer.time)
		if e.deliver(timer.event) {
			return true, nil
		}
	}
	return false, errors.New("deadlock: all Handles are polling")
}

// popTimer removes the Timer with the earliest deadline.
// Ties are broken by the loop's random source.
func (e *EventLoop) popTimer() *Timer {
	indices := e.rng.Perm(len(e.timers))
	best := indices[0]
	for _, i := range indices[1:] {
		if e.timers[i].time < e.timers[best].time {
			best = i
		}
	}
	timer := e.timers[best]
	essentials.UnorderedDelete(&e.timers, best)
	return timer
}

// deliver hands an event to a random worker polling its
// stream, or queues it on the stream.
// It reports whether a worker was woken.
func (e *EventLoop) deliver(event *Event) bool {
	for _, i := range e.rng.Perm(len(e.handles)) {
		h := e.handles[i]
		for _, stream := range h.pollStreams {
			if stream == event.Stream {
				h.pollChan <- event
				h.pollChan = nil
				h.pollStreams = nil
				return true
			}
		}
	}
	event.Stream.pending = append(event.Stream.pending, event.Message)
	return false
}
