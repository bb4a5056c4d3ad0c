package llmcall

import (
	"github.com/abapscribe/scribe/internal/providers"
)

// Recorder builds call records from chat results and appends them to a Store.
type Recorder struct {
	store *Store
}

// NewRecorder creates a new LLM call recorder.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Record captures an LLM call and returns the stored record.
// The record is returned even when no store is configured so callers
// can still surface usage from it.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) *Call {
	call := FromChatResult(result, opts)
	if call == nil {
		return nil
	}
	if r.store != nil {
		r.store.Add(call)
	}
	return call
}

// RecordCall captures an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r.store == nil || call == nil {
		return
	}
	r.store.Add(call)
}
