package state

import "github.com/vmchain/execengine/common"

// journalEntry is one undoable diff record. Grounded on the teacher's
// journal.go journalEntry interface, kept closure-free here (entries
// close over their own pre-image instead of needing a dirtied() helper)
// since this engine's access/warm sets are a single tagged collection
// (design note §9) rather than the teacher's multiple typed lists.
type journalEntry interface {
	revert(*StateDB)
}

// journal is the LIFO of diff records backing the checkpoint stack (spec
// §3 "Journal / checkpoint stack"). Frames are modeled as index ranges
// into a single owned entries slice — no frame holds a pointer to another
// frame or to the StateDB, only a position in this slice — so commit and
// revert never touch back-pointers (design note §9).
type journal struct {
	entries     []journalEntry
	checkpoints []int // checkpoints[i] = len(entries) at the time checkpoint i was opened
}

func newJournal() *journal {
	return &journal{}
}

// open starts a new frame and returns its id.
func (j *journal) open() int {
	j.checkpoints = append(j.checkpoints, len(j.entries))
	return len(j.checkpoints) - 1
}

// depth reports the number of currently-open frames.
func (j *journal) depth() int { return len(j.checkpoints) }

// append records a new diff in the currently-innermost open frame.
func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

// commit folds the frame named by id into its parent. Because frames are
// index ranges over one shared slice, folding requires no copy: the
// entries simply become attributed to the parent frame by dropping the
// boundary marker between them.
func (j *journal) commit(id int) error {
	if id != len(j.checkpoints)-1 {
		return ErrJournalUnderflow
	}
	j.checkpoints = j.checkpoints[:id]
	return nil
}

// revert undoes every entry recorded since frame id was opened, in
// reverse order, then discards the frame and any frames nested inside it.
func (j *journal) revert(id int, s *StateDB) error {
	if id >= len(j.checkpoints) {
		return ErrJournalUnderflow
	}
	start := j.checkpoints[id]
	for i := len(j.entries) - 1; i >= start; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:start]
	j.checkpoints = j.checkpoints[:id]
	return nil
}

// --- concrete diff records ---

// accountChange restores an address's entire account slot to its
// pre-image. Balance, nonce, and code mutations all reduce to this one
// record since the recorded pre-image already captures every field.
type accountChange struct {
	addr common.Address
	prev *account
}

func (c accountChange) revert(s *StateDB) { s.restore(c.addr, c.prev) }

type createAccountChange struct {
	addr common.Address
}

func (c createAccountChange) revert(s *StateDB) { delete(s.accounts, c.addr) }

type deleteAccountChange struct {
	addr common.Address
	prev *account
}

func (c deleteAccountChange) revert(s *StateDB) { s.restore(c.addr, c.prev) }

type storageChange struct {
	addr     common.Address
	key      common.Hash
	prevVal  common.Hash
	prevSet  bool
}

func (c storageChange) revert(s *StateDB) {
	obj := s.getOrCreate(c.addr)
	if c.prevSet {
		obj.storage[c.key] = c.prevVal
	} else {
		delete(obj.storage, c.key)
	}
}

type refundChange struct {
	prev uint64
}

func (c refundChange) revert(s *StateDB) { s.refund = c.prev }

type accessChange struct {
	key accessKey
}

func (c accessChange) revert(s *StateDB) { s.access.Remove(c.key) }

type transientChange struct {
	addr    common.Address
	key     common.Hash
	prevVal common.Hash
	prevSet bool
}

func (c transientChange) revert(s *StateDB) {
	m := s.transient[c.addr]
	if m == nil {
		return
	}
	if c.prevSet {
		m[c.key] = c.prevVal
	} else {
		delete(m, c.key)
	}
}

type selfDestructChange struct {
	addr common.Address
	prev bool
}

func (c selfDestructChange) revert(s *StateDB) {
	if c.prev {
		s.destructed[c.addr] = struct{}{}
	} else {
		delete(s.destructed, c.addr)
	}
}
