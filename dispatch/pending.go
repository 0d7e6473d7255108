package dispatch

import "sync"

// pendingTx is an optimistic mutation awaiting its remote outcome. Undo
// restores the store to the state before the optimistic apply.
type pendingTx struct {
	id   uint64
	undo func()
}

// journal tracks in-flight optimistic transactions so a remote failure can
// roll back exactly the mutation that failed.
type journal struct {
	mu   sync.Mutex
	next uint64
	txs  map[uint64]pendingTx
}

func newJournal() *journal {
	return &journal{txs: make(map[uint64]pendingTx)}
}

func (j *journal) open(undo func()) uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.next++
	id := j.next
	j.txs[id] = pendingTx{id: id, undo: undo}
	return id
}

// commit discards the undo: the remote accepted the mutation.
func (j *journal) commit(id uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.txs, id)
}

// rollback runs the undo outside the journal lock and discards the entry.
func (j *journal) rollback(id uint64) {
	j.mu.Lock()
	tx, ok := j.txs[id]
	delete(j.txs, id)
	j.mu.Unlock()
	if ok && tx.undo != nil {
		tx.undo()
	}
}

// sendRegistry correlates optimistic message placeholders with their push
// echoes. Temp ids are queued per conversation in send order; the push
// reconciler claims the oldest one when the sender's own message arrives
// back over the stream before (or after) the HTTP ack.
type sendRegistry struct {
	mu      sync.Mutex
	pending map[string][]string
}

func newSendRegistry() *sendRegistry {
	return &sendRegistry{pending: make(map[string][]string)}
}

func (r *sendRegistry) add(conversationID, tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[conversationID] = append(r.pending[conversationID], tempID)
}

// Claim pops the oldest pending temp id for the conversation. ok is false
// when nothing is pending, which means the message is not ours to correlate.
func (r *sendRegistry) Claim(conversationID string) (tempID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.pending[conversationID]
	if len(q) == 0 {
		return "", false
	}
	tempID = q[0]
	if len(q) == 1 {
		delete(r.pending, conversationID)
	} else {
		r.pending[conversationID] = q[1:]
	}
	return tempID, true
}

// remove drops a specific temp id, used when the HTTP ack settles the
// placeholder before any push echo arrives.
func (r *sendRegistry) remove(conversationID, tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.pending[conversationID]
	for i, id := range q {
		if id == tempID {
			q = append(q[:i], q[i+1:]...)
			break
		}
	}
	if len(q) == 0 {
		delete(r.pending, conversationID)
	} else {
		r.pending[conversationID] = q
	}
}
