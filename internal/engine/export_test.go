package engine

// CursorOf exposes the strict cursor of a thread for tests.
func (e *Execution) CursorOf(t ThreadID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ts, ok := e.threads[t]; ok {
		return ts.cursor
	}
	return 0
}

// PendingCount exposes the number of pending replay violations.
func (e *Execution) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
