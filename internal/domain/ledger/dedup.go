package ledger

import (
	"context"
	"strings"
)

// Kind distinguishes expense keys from income keys
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const detailsSeparator = ": "

// DedupKey is the import identity of a ledger record: (source label, category, planned flag),
// tagged with the record kind so income never collides with an executed expense.
type DedupKey struct {
	Kind      Kind
	Source    string
	Category  Category
	IsPlanned bool
}

// ExpenseKey builds the key of an imported expense record
func ExpenseKey(source string, category Category, isPlanned bool) DedupKey {
	return DedupKey{Kind: KindExpense, Source: source, Category: category, IsPlanned: isPlanned}
}

// IncomeKey builds the key of an imported income record
func IncomeKey(source string, category Category) DedupKey {
	return DedupKey{Kind: KindIncome, Source: source, Category: category}
}

// String renders the key in a stable form usable as a set member or store key
func (k DedupKey) String() string {
	planned := "executed"
	if k.Kind == KindIncome {
		planned = "-"
	} else if k.IsPlanned {
		planned = "planned"
	}
	return string(k.Kind) + "|" + string(k.Category) + "|" + planned + "|" + k.Source
}

// FormatDetails prefixes a description with its source label
func FormatDetails(source, description string) string {
	if description == "" {
		return source + ":"
	}
	return source + detailsSeparator + description
}

// ParseSourceLabel extracts the source label from a details string written by FormatDetails
func ParseSourceLabel(details string) (string, bool) {
	idx := strings.Index(details, ":")
	if idx <= 0 {
		return "", false
	}
	label := strings.TrimSpace(details[:idx])
	if label == "" {
		return "", false
	}
	return label, true
}

// KeysOf returns the dedup keys of every labelled entry in the snapshot
func KeysOf(s *Snapshot) []DedupKey {
	keys := make([]DedupKey, 0, s.Len())
	for _, e := range s.entries {
		if key, ok := e.DedupKey(); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// DedupSession tracks the keys used by one import invocation.
// It is owned by the caller and must be Reset before every import.
// A session is not safe to share between imports of different reservations.
type DedupSession interface {
	// Reset clears every tracked key
	Reset(ctx context.Context) error

	// Seed marks keys of previously persisted records as used
	Seed(ctx context.Context, keys ...DedupKey) error

	// Claim marks key as used and reports whether it was free
	Claim(ctx context.Context, key DedupKey) (bool, error)

	// Release frees a claimed key after the create it guarded failed
	Release(ctx context.Context, key DedupKey) error
}
