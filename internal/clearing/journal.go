package clearing

import "log/slog"

// journal is the undo log bracketing each settlement operation's collaborator
// calls. Transfers and mints are recorded as they succeed; if a later step
// fails, rollback re-applies the inverses in reverse order so no partial
// movement survives. Core ledger mutation is always sequenced after every
// fallible step, so the ledger itself never needs unwinding.
type journal struct {
	undos []func() error
}

// record notes the inverse of a completed step.
func (j *journal) record(undo func() error) {
	j.undos = append(j.undos, undo)
}

// rollback runs the recorded inverses newest-first. An inverse that fails is
// logged and skipped; the collaborators guarantee each inverse is funded, so
// a failure here means a collaborator defect, not a recoverable condition.
func (j *journal) rollback(logger *slog.Logger) {
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil {
			logger.Error("journal rollback step failed", "error", err)
		}
	}
	j.undos = nil
}

// commit discards the undo log once the operation has fully succeeded.
func (j *journal) commit() {
	j.undos = nil
}
