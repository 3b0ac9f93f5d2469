package editor

import (
	"sync"
	"time"
)

// SaveOutcome is how a save transaction settled
type SaveOutcome int

const (
	// SaveNone means no transaction was involved
	SaveNone SaveOutcome = iota
	// SaveAcknowledged means the editor answered with file-saved
	SaveAcknowledged
	// SaveAbandoned means the wait timed out or the editor went away
	SaveAbandoned
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveAcknowledged:
		return "acknowledged"
	case SaveAbandoned:
		return "abandoned"
	default:
		return "none"
	}
}

// SaveTransaction is the single outstanding save of an editor. It settles
// exactly once.
type SaveTransaction struct {
	started time.Time
	done    chan struct{}
	once    sync.Once
	outcome SaveOutcome
}

func newSaveTransaction() *SaveTransaction {
	return &SaveTransaction{
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Done is closed when the transaction settles
func (t *SaveTransaction) Done() <-chan struct{} {
	return t.done
}

// Outcome returns how the transaction settled, SaveNone while pending
func (t *SaveTransaction) Outcome() SaveOutcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return SaveNone
	}
}

func (t *SaveTransaction) settle(outcome SaveOutcome) bool {
	settled := false
	t.once.Do(func() {
		t.outcome = outcome
		close(t.done)
		settled = true
	})
	return settled
}
