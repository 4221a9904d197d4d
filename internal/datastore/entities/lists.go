package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IDList is a list of legacy ids stored as a JSON array. It implements
// driver.Valuer so it can be written through partial update maps as well as
// through struct fields.
type IDList []int64

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	return marshalList(l)
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src any) error {
	return unmarshalList(src, l)
}

// StringList is a list of strings stored as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	return marshalList(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return unmarshalList(src, l)
}

func marshalList[T any](l []T) (driver.Value, error) {
	if l == nil {
		l = []T{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalList(src, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported list column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
