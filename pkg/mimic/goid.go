package mimic

import (
	"bytes"
	"runtime"
	"strconv"

	"github.com/unbound-force/mimic/internal/engine"
)

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from its stack header,
// "goroutine 18 [running]:". It returns 0 if the header is malformed.
func goroutineID() engine.ThreadID {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return engine.ThreadID(id)
}
