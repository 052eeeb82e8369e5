// Package scope provides the session's named vector bindings and the
// transaction journal that makes every top-level learn/query/prove call
// atomic.
package scope

// Journal is an undo log. Every mutation performed inside a transaction
// records a compensating closure; rollback replays them in reverse order
// until the snapshot mark.
type Journal struct {
	undos []func()
}

// Mark captures the current journal position as a snapshot.
func (j *Journal) Mark() int { return len(j.undos) }

// Record appends an undo operation for the mutation just performed.
func (j *Journal) Record(undo func()) {
	j.undos = append(j.undos, undo)
}

// RollbackTo undoes every mutation after the mark, newest first.
func (j *Journal) RollbackTo(mark int) {
	for i := len(j.undos) - 1; i >= mark; i-- {
		j.undos[i]()
	}
	j.undos = j.undos[:mark]
}

// CommitTo discards the undo entries after the mark, making the mutations
// permanent.
func (j *Journal) CommitTo(mark int) {
	j.undos = j.undos[:mark]
}

// Len returns the journal depth. Used by tests and the session to verify
// that commits drain the log.
func (j *Journal) Len() int { return len(j.undos) }
