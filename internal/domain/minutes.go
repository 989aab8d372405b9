package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Minutes is a duration in whole minutes. Service durations arrive both as
// numbers and as strings ("60", "60 min") depending on where the row was
// written from, so normalization happens here instead of at each use site.
type Minutes int

func ParseMinutes(v any) (Minutes, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return Minutes(t), nil
	case int64:
		return Minutes(t), nil
	case float64:
		return Minutes(t), nil
	case []byte:
		return parseMinutesString(string(t))
	case string:
		return parseMinutesString(t)
	default:
		return 0, fmt.Errorf("cannot parse minutes from %T", v)
	}
}

func parseMinutesString(s string) (Minutes, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }); i > 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Minutes(n), nil
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseMinutes(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(m))
}

func (m *Minutes) Scan(src any) error {
	v, err := ParseMinutes(src)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Minutes) Value() (driver.Value, error) {
	return int64(m), nil
}
