// Package stacktrace trims raw goroutine stacks down to the frames that live
// in this repository, so panic logs stay readable.
package stacktrace

import "strings"

// InternalPaths extracts "internal/..." file:line entries from a raw stack.
// It returns nil when the stack contains no internal frames.
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[idx+1:]
		if cut := strings.IndexByte(frame, ' '); cut != -1 {
			frame = frame[:cut]
		}

		paths = append(paths, frame)
	}

	return paths
}
