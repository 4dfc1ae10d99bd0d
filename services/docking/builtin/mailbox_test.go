package builtin

import (
	"sync"
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/services/docking"
)

func TestMailboxKeepsLatest(t *testing.T) {
	var mb signalMailbox
	_, ok := mb.take()
	test.That(t, ok, test.ShouldBeFalse)

	mb.put(docking.ErrorSignal{ForwardDistanceMM: 100})
	mb.put(docking.ErrorSignal{ForwardDistanceMM: 90})
	sig, ok := mb.take()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sig.ForwardDistanceMM, test.ShouldEqual, 90.)
	test.That(t, mb.dropped(), test.ShouldEqual, uint64(1))

	_, ok = mb.take()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestMailboxConcurrentWriters(t *testing.T) {
	var mb signalMailbox
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				mb.put(docking.ErrorSignal{ForwardDistanceMM: float64(w*perWriter + i)})
			}
		}(w)
	}

	reads := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for drained := false; !drained; {
		select {
		case <-done:
			drained = true
		default:
		}
		if sig, ok := mb.take(); ok {
			test.That(t, sig.ForwardDistanceMM, test.ShouldBeBetweenOrEqual, 0, writers*perWriter-1)
			reads++
		}
	}
	if _, ok := mb.take(); ok {
		reads++
	}
	// every write is either read or counted as overwritten
	test.That(t, uint64(reads)+mb.dropped(), test.ShouldEqual, uint64(writers*perWriter))
}
