// Package watch batches raw filesystem events into debounced
// broker.FileEvent slices, grounded on the teacher's
// core/reloader.go StartWatching: a radovskyb/watcher instance feeding
// a single goroutine that ticks on a fixed interval and flushes
// whatever paths it has collected since the last tick.
package watch

import (
	"log"
	"time"

	"github.com/radovskyb/watcher"

	"github.com/pylon-ssg/pylon/broker"
	"github.com/pylon-ssg/pylon/paths"
)

// DefaultDebounce is how long to coalesce bursts of filesystem events
// before flushing a batch: narrower than the teacher's 1s default
// (core/reloader.go's buildFreq), see DESIGN.md.
const DefaultDebounce = 250 * time.Millisecond

// Watcher recursively watches a project root and forwards debounced
// batches of changed paths to a broker.Broker's FilesystemUpdate
// command.
type Watcher struct {
	w        *watcher.Watcher
	broker   *broker.Broker
	debounce time.Duration
	done     chan struct{}
}

// New returns a Watcher that will report changes to b once Start is
// called. The root argument is not used; Start's root is what is watched.
func New(b *broker.Broker, root paths.AbsPath, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		w:        watcher.New(),
		broker:   b,
		debounce: debounce,
		done:     make(chan struct{}),
	}
}

// Start begins watching root recursively and runs the collect-and-flush
// loop in its own goroutine, mirroring core/reloader.go's StartWatching.
// It returns once the initial recursive add succeeds; call Stop to end
// the watch.
func (wt *Watcher) Start(root paths.AbsPath) error {
	if err := wt.w.AddRecursive(root.String()); err != nil {
		return err
	}

	go wt.loop()

	go func() {
		if err := wt.w.Start(100 * time.Millisecond); err != nil {
			log.Printf("watch: watcher stopped: %v", err)
		}
	}()
	return nil
}

// Stop closes the underlying watcher, ending both of Start's goroutines.
func (wt *Watcher) Stop() {
	wt.w.Close()
	<-wt.done
}

func (wt *Watcher) loop() {
	defer close(wt.done)

	ticker := time.NewTicker(wt.debounce)
	defer ticker.Stop()

	collected := map[string]struct{}{}
	for {
		select {
		case ev, ok := <-wt.w.Event:
			if !ok {
				return
			}
			collected[ev.Path] = struct{}{}
		case err, ok := <-wt.w.Error:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		case <-wt.w.Closed:
			return
		case <-ticker.C:
			if len(collected) == 0 {
				continue
			}
			events := make([]broker.FileEvent, 0, len(collected))
			for p := range collected {
				events = append(events, broker.FileEvent{Path: p})
			}
			collected = map[string]struct{}{}
			wt.broker.FilesystemUpdate(events)
		}
	}
}
