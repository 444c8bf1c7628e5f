package collcomm

import (
	"errors"
	"sync"
)

// LocalComms is a Transport between Goroutines in the same
// process.
type LocalComms struct {
	rank    int
	inboxes []chan *Envelope
}

// Rank returns the worker's rank.
func (l *LocalComms) Rank() int {
	return l.rank
}

// Size returns the number of workers.
func (l *LocalComms) Size() int {
	return len(l.inboxes)
}

// Send puts the Envelope in the destination's inbox.
func (l *LocalComms) Send(dst int, env *Envelope) {
	l.inboxes[dst] <- env
}

// Recv takes the next Envelope from the worker's inbox.
func (l *LocalComms) Recv() *Envelope {
	return <-l.inboxes[l.rank]
}

// A LocalSpawner runs every worker of a group in its own
// Goroutine.
type LocalSpawner struct {
	Reducer Reducer
}

// Spawn runs f on size workers and waits for them to
// return.
func (l LocalSpawner) Spawn(size int, f func(c Channel)) error {
	if size <= 0 {
		return errors.New("spawn: group size should be positive")
	}
	inboxes := make([]chan *Envelope, size)
	for i := range inboxes {
		inboxes[i] = make(chan *Envelope, size)
	}
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			f(NewGroup(&LocalComms{rank: rank, inboxes: inboxes}, l.Reducer))
		}(i)
	}
	wg.Wait()
	return nil
}
