package profiling

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lightweight per-window CPU profiler for pipeline stages.

type stat struct {
	total time.Duration
	calls int
}

var (
	mu     sync.Mutex
	totals = make(map[string]stat)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("world.GenerateColumn")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := totals[name]
		s.total += d
		s.calls++
		totals[name] = s
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each reporting window.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	mu.Unlock()
}

// Snapshot returns a copy of current totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(totals))
	for k, v := range totals {
		out[k] = v.total
	}
	return out
}

// Calls returns how often name was tracked in the current window.
func Calls(name string) int {
	mu.Lock()
	defer mu.Unlock()
	return totals[name].calls
}

// TopN formats the n most expensive entries of the current window.
// Example: "world.GenerateColumn:4.2ms(12), meshing.BuildChunk:2.1ms(40)"
func TopN(n int) string {
	type entry struct {
		name string
		stat
	}
	mu.Lock()
	list := make([]entry, 0, len(totals))
	for k, v := range totals {
		list = append(list, entry{k, v})
	}
	mu.Unlock()

	slices.SortFunc(list, func(a, b entry) int {
		if c := cmp.Compare(b.total, a.total); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		ms := float64(e.total.Microseconds()) / 1000.0
		parts = append(parts, e.name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms("+strconv.Itoa(e.calls)+")")
	}
	return strings.Join(parts, ", ")
}
