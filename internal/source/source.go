// Package source delivers observations from the capture process to the
// pipeline. The capture process appends one JSON object per line to an
// observation log; the follower tails that file and emits parsed
// observations on a channel.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ari/focustrack/internal/tracker"
)

// Follower tails an append-only JSONL observation log. It starts at the end
// of the file so a restart does not re-deliver observations that were
// already processed and persisted; truncation or recreation resets the read
// position to the start.
type Follower struct {
	path      string
	fsWatcher *fsnotify.Watcher
	offset    int64

	observations chan tracker.Observation
	errors       chan error
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewFollower creates a follower for the log at path. The file does not
// need to exist yet; it is picked up when the capture process creates it.
func NewFollower(path string) (*Follower, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory rather than the file so creation and rotation
	// are observed
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	f := &Follower{
		path:         path,
		fsWatcher:    fsw,
		observations: make(chan tracker.Observation, 100),
		errors:       make(chan error, 10),
		done:         make(chan struct{}),
	}

	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}

	return f, nil
}

// Observations returns the channel of parsed observations
func (f *Follower) Observations() <-chan tracker.Observation {
	return f.observations
}

// Errors returns the channel of parse and watch errors
func (f *Follower) Errors() <-chan error {
	return f.errors
}

// Start begins tailing the log
func (f *Follower) Start() {
	f.wg.Add(1)
	go f.watchLoop()
}

// Stop stops the follower and closes the observation channel
func (f *Follower) Stop() error {
	close(f.done)
	err := f.fsWatcher.Close()
	f.wg.Wait()
	close(f.observations)
	return err
}

func (f *Follower) watchLoop() {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return

		case event, ok := <-f.fsWatcher.Events:
			if !ok {
				return
			}
			f.handleFSEvent(event)

		case err, ok := <-f.fsWatcher.Errors:
			if !ok {
				return
			}
			f.reportError(err)
		}
	}
}

func (f *Follower) handleFSEvent(event fsnotify.Event) {
	if event.Name != f.path {
		return
	}
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		// Recreated log: read it from the start
		f.offset = 0
		f.readNewLines()
	case event.Op&fsnotify.Write == fsnotify.Write:
		f.readNewLines()
	}
}

// readNewLines parses everything appended since the last read. Only
// complete lines advance the offset; a partially written line is retried on
// the next event.
func (f *Follower) readNewLines() {
	file, err := os.Open(f.path)
	if err != nil {
		f.reportError(fmt.Errorf("failed to open observation log: %w", err))
		return
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.Size() < f.offset {
		// Truncated underneath us
		f.offset = 0
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		f.reportError(fmt.Errorf("failed to seek observation log: %w", err))
		return
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// Incomplete trailing line stays unconsumed
			return
		}
		f.offset += int64(len(line))

		obs, perr := ParseLine(line)
		if perr != nil {
			f.reportError(perr)
			continue
		}

		select {
		case f.observations <- obs:
		default:
			f.reportError(fmt.Errorf("observation channel full, dropping entry"))
		}
	}
}

func (f *Follower) reportError(err error) {
	select {
	case f.errors <- err:
	default:
		// Error channel full, drop
	}
}

// ParseLine decodes one observation log line. Blank lines and lines that
// fail validation are malformed.
func ParseLine(line []byte) (tracker.Observation, error) {
	var obs tracker.Observation
	if err := json.Unmarshal(line, &obs); err != nil {
		return tracker.Observation{}, fmt.Errorf("%w: %v", tracker.ErrMalformedObservation, err)
	}
	if err := obs.Validate(); err != nil {
		return tracker.Observation{}, err
	}
	return obs, nil
}
