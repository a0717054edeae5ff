package ledger

import (
	"github.com/google/uuid"
)

// Partition names one of the three ledger views
type Partition string

const (
	PartitionPlanned  Partition = "planned"
	PartitionExecuted Partition = "executed"
	PartitionIncome   Partition = "income"
)

// IsValid checks if the partition is known
func (p Partition) IsValid() bool {
	return p == PartitionPlanned || p == PartitionExecuted || p == PartitionIncome
}

// Contains is the view predicate selecting entries of this partition
func (p Partition) Contains(e Entry) bool {
	return e.Partition() == p
}

// Entry is a ledger record of either kind. Its partition is derived from the record itself,
// so an entry is always in exactly one view.
type Entry interface {
	GetID() uuid.UUID
	Partition() Partition
	Base() *Record
	DedupKey() (DedupKey, bool)
}

// Snapshot is the ledger content as one tagged collection
type Snapshot struct {
	LedgerID uuid.UUID
	entries  []Entry
}

// NewSnapshot builds a snapshot from stored expense and income records
func NewSnapshot(ledgerID uuid.UUID, expenses []ExpenseRecord, income []IncomeRecord) *Snapshot {
	s := &Snapshot{LedgerID: ledgerID, entries: make([]Entry, 0, len(expenses)+len(income))}
	for i := range expenses {
		s.entries = append(s.entries, &expenses[i])
	}
	for i := range income {
		s.entries = append(s.entries, &income[i])
	}
	return s
}

// Entries returns all entries in insertion order
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries across all partitions
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Filter returns the entries matching pred
func (s *Snapshot) Filter(pred func(Entry) bool) []Entry {
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Planned returns the planned expense view
func (s *Snapshot) Planned() []*ExpenseRecord {
	return s.expenses(PartitionPlanned)
}

// Executed returns the executed expense view
func (s *Snapshot) Executed() []*ExpenseRecord {
	return s.expenses(PartitionExecuted)
}

func (s *Snapshot) expenses(p Partition) []*ExpenseRecord {
	out := make([]*ExpenseRecord, 0)
	for _, e := range s.entries {
		if exp, ok := e.(*ExpenseRecord); ok && p.Contains(exp) {
			out = append(out, exp)
		}
	}
	return out
}

// Income returns the income view
func (s *Snapshot) Income() []*IncomeRecord {
	out := make([]*IncomeRecord, 0)
	for _, e := range s.entries {
		if inc, ok := e.(*IncomeRecord); ok {
			out = append(out, inc)
		}
	}
	return out
}

// Find returns the entry with the given id
func (s *Snapshot) Find(id uuid.UUID) (Entry, bool) {
	for _, e := range s.entries {
		if e.GetID() == id {
			return e, true
		}
	}
	return nil, false
}

// Upsert replaces the entry with the same id in place, or appends it.
// A record whose planned flag changed is moved between views by this single write.
func (s *Snapshot) Upsert(entry Entry) {
	for i, e := range s.entries {
		if e.GetID() == entry.GetID() {
			s.entries[i] = entry
			return
		}
	}
	s.entries = append(s.entries, entry)
}

// Remove drops the entry with the given id and reports whether it was present
func (s *Snapshot) Remove(id uuid.UUID) bool {
	for i, e := range s.entries {
		if e.GetID() == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached snapshots are never shared with callers
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{LedgerID: s.LedgerID, entries: make([]Entry, 0, len(s.entries))}
	for _, e := range s.entries {
		out.entries = append(out.entries, CloneEntry(e))
	}
	return out
}

// CloneEntry returns a copy of the record behind e
func CloneEntry(e Entry) Entry {
	switch v := e.(type) {
	case *ExpenseRecord:
		c := *v
		c.DiscountRate = cloneRate(v.DiscountRate)
		return &c
	case *IncomeRecord:
		c := *v
		c.DiscountRate = cloneRate(v.DiscountRate)
		return &c
	default:
		return e
	}
}
