package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// RecordIDKey is the JSON member holding a record's identifier.
const RecordIDKey = "id"

// StudentRecord is one roster entry: an id plus one value per field key.
type StudentRecord struct {
	ID     int64
	Values map[string]string
}

// Value returns the value stored under key or "".
func (r StudentRecord) Value(key string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[key]
}

// Clone returns a copy with its own value map.
func (r StudentRecord) Clone() StudentRecord {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return StudentRecord{ID: r.ID, Values: values}
}

// MarshalJSON renders the record flat: {"id": 1, "name": "..."}.
func (r StudentRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Values)+1)
	for k, v := range r.Values {
		out[k] = v
	}
	out[RecordIDKey] = r.ID
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flat form. Non-string values are kept as their
// JSON text so older snapshots with numeric values still load.
func (r *StudentRecord) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = 0
	r.Values = make(map[string]string, len(raw))
	for k, v := range raw {
		if k == RecordIDKey {
			id, err := parseRecordID(v)
			if err != nil {
				return err
			}
			r.ID = id
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			r.Values[k] = s
			continue
		}
		if string(v) == "null" {
			r.Values[k] = ""
			continue
		}
		r.Values[k] = string(v)
	}
	return nil
}

func parseRecordID(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid record id %s", string(raw))
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return n, nil
}

// StudentFilter narrows roster listings.
type StudentFilter struct {
	Search string
	Field  string
	Value  string
}

// GroupCount is the number of records sharing one value of a field.
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SortGroups orders groups by the given option order, unknown values last.
func SortGroups(groups []GroupCount, order []string) {
	rank := make(map[string]int, len(order))
	for i, o := range order {
		if _, seen := rank[o]; !seen {
			rank[o] = i
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		ri, iok := rank[groups[i].Value]
		rj, jok := rank[groups[j].Value]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return groups[i].Value < groups[j].Value
		}
	})
}
