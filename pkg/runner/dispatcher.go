package runner

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// lineDispatcher pumps input lines in the background and hands each one to
// the handler of the current prompt. Lines arriving while nothing is
// presented are queued for the next prompt.
type lineDispatcher struct {
	scanner *bufio.Scanner
	onError func(error)

	mu      sync.Mutex
	pending func(line string) bool
	queue   []string

	startOnce sync.Once
	closed    chan struct{}
}

func newLineDispatcher(r io.Reader, onError func(error)) *lineDispatcher {
	return &lineDispatcher{
		scanner: bufio.NewScanner(r),
		onError: onError,
		closed:  make(chan struct{}),
	}
}

func (d *lineDispatcher) start() {
	d.startOnce.Do(func() {
		go func() {
			defer close(d.closed)
			for d.scanner.Scan() {
				line, err := SanitizeInput(d.scanner.Text())
				if err != nil {
					if d.onError != nil {
						d.onError(err)
					}
					continue
				}
				d.dispatch(strings.TrimSpace(line))
			}
		}()
	})
}

func (d *lineDispatcher) dispatch(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		d.queue = append(d.queue, line)
		return
	}
	if d.pending(line) {
		d.pending = nil
	}
}

// await installs handler as the current prompt. A handler returning true
// consumes the prompt.
func (d *lineDispatcher) await(handler func(line string) bool) {
	d.mu.Lock()
	d.pending = handler
	for len(d.queue) > 0 && d.pending != nil {
		line := d.queue[0]
		d.queue = d.queue[1:]
		if d.pending(line) {
			d.pending = nil
		}
	}
	d.mu.Unlock()
	d.start()
}

func (d *lineDispatcher) cancel() {
	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
}
