package postpolicy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Condition operators understood by S3 POST policies
const (
	OpEq                 = "eq"
	OpStartsWith         = "starts-with"
	OpContentLengthRange = "content-length-range"
)

// Condition is a single entry of a POST policy's condition list.
// Field is stored without the leading "$".
type Condition struct {
	Op    string
	Field string
	Value string
	Min   int64
	Max   int64
}

// Eq requires the form field to equal value exactly
func Eq(field, value string) Condition {
	return Condition{Op: OpEq, Field: field, Value: value}
}

// StartsWith requires the form field to begin with prefix
func StartsWith(field, prefix string) Condition {
	return Condition{Op: OpStartsWith, Field: field, Value: prefix}
}

// ContentLengthRange bounds the uploaded object size, inclusive on both ends
func ContentLengthRange(min, max int64) Condition {
	return Condition{Op: OpContentLengthRange, Min: min, Max: max}
}

// MarshalJSON encodes the condition in array form, e.g. ["eq","$key","a.png"]
func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Op {
	case OpContentLengthRange:
		return json.Marshal([]any{c.Op, c.Min, c.Max})
	case OpEq, OpStartsWith:
		return json.Marshal([]string{c.Op, "$" + c.Field, c.Value})
	default:
		return nil, fmt.Errorf("postpolicy: unknown condition operator %q", c.Op)
	}
}

// UnmarshalJSON accepts both the array form and the object form ({"bucket":"b"}).
func (c *Condition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]string
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj) != 1 {
			return fmt.Errorf("postpolicy: object condition must have exactly one field")
		}
		for field, value := range obj {
			*c = Eq(field, value)
		}
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("postpolicy: array condition must have three elements")
	}

	var op string
	if err := json.Unmarshal(parts[0], &op); err != nil {
		return err
	}
	op = strings.ToLower(op)

	if op == OpContentLengthRange {
		min, err := strconv.ParseInt(strings.Trim(string(parts[1]), `"`), 10, 64)
		if err != nil {
			return fmt.Errorf("postpolicy: invalid content-length-range minimum: %w", err)
		}
		max, err := strconv.ParseInt(strings.Trim(string(parts[2]), `"`), 10, 64)
		if err != nil {
			return fmt.Errorf("postpolicy: invalid content-length-range maximum: %w", err)
		}
		*c = ContentLengthRange(min, max)
		return nil
	}

	var field, value string
	if err := json.Unmarshal(parts[1], &field); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[2], &value); err != nil {
		return err
	}
	*c = Condition{Op: op, Field: strings.TrimPrefix(field, "$"), Value: value}
	return nil
}

// Satisfied reports whether value passes the condition. Range conditions
// are enforced by the storage service on the actual bytes and always pass here.
func (c Condition) Satisfied(value string) bool {
	switch c.Op {
	case OpEq:
		return value == c.Value
	case OpStartsWith:
		return strings.HasPrefix(value, c.Value)
	default:
		return true
	}
}

func (c Condition) String() string {
	if c.Op == OpContentLengthRange {
		return fmt.Sprintf("%s %d..%d", c.Op, c.Min, c.Max)
	}
	return fmt.Sprintf("%s $%s %q", c.Op, c.Field, c.Value)
}
