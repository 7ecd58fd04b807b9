package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// TransactionType is the offer mode of a business listing.
type TransactionType int

const (
	Auction TransactionType = iota + 1
	Sale
	Investment
	Lease
)

// ErrInvalidTransactionType is returned when text or a DB value does not name a known type.
var ErrInvalidTransactionType = errors.New("invalid transaction type")

var transactionTypeText = map[TransactionType]string{
	Auction:    "auction",
	Sale:       "sale",
	Investment: "investment",
	Lease:      "lease",
}

var transactionTypeNames = map[TransactionType]string{
	Auction:    "Auction",
	Sale:       "Sale",
	Investment: "Investment",
	Lease:      "Lease",
}

// TransactionTypes lists every type in display order.
func TransactionTypes() []TransactionType {
	return []TransactionType{Auction, Sale, Investment, Lease}
}

// ParseTransactionType accepts the stored value or the display name, case-insensitive.
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, v := range transactionTypeText {
		if v == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
}

// Valid reports whether t is one of the four known types.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypeText[t]
	return ok
}

// String returns the stored value ("auction", "sale", ...).
func (t TransactionType) String() string {
	if v, ok := transactionTypeText[t]; ok {
		return v
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

// Name returns the display name ("Auction", "Sale", ...).
func (t TransactionType) Name() string {
	return transactionTypeNames[t]
}

func (t TransactionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidTransactionType
	}
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	parsed, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer; the column stores the text form.
func (t TransactionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, ErrInvalidTransactionType
	}
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *TransactionType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidTransactionType, value)
	}
}

// TransactionTypesObject maps display name to stored value, the shape the listing form expects.
func TransactionTypesObject() map[string]string {
	out := make(map[string]string, len(transactionTypeText))
	for t, v := range transactionTypeText {
		out[transactionTypeNames[t]] = v
	}
	return out
}
