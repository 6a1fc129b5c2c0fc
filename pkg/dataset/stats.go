package dataset

import (
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/dshills/goax/pkg/query"
)

// Stats aggregates a dataset by target role, focused application and action.
type Stats struct {
	Samples     int            `json:"samples"`
	Invalid     int            `json:"invalid"`
	Elements    int            `json:"elements"`
	ByRole      map[string]int `json:"by_role"`
	ByApp       map[string]int `json:"by_app"`
	ByAction    map[string]int `json:"by_action"`
	MeanCommand float64        `json:"mean_command_length"`
}

// Count is one entry of a sorted breakdown.
type Count struct {
	Name  string
	Count int
}

// Sorted returns the entries of m by descending count, then name.
func Sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ComputeStats reads path once. Lines that are not JSON are counted as invalid
// and otherwise ignored.
func ComputeStats(path string) (*Stats, error) {
	st := &Stats{
		ByRole:   map[string]int{},
		ByApp:    map[string]int{},
		ByAction: map[string]int{},
	}
	commandChars := 0

	err := ScanFile(path, func(line int, raw []byte) error {
		if !gjson.ValidBytes(raw) {
			st.Invalid++
			return nil
		}
		doc := gjson.ParseBytes(raw)
		st.Samples++
		commandChars += len(doc.Get("command").String())

		elements := doc.Get("screen_state.elements")
		st.Elements += int(elements.Get("#").Int())

		role := "unresolved"
		target := doc.Get("target_element_id").Int()
		if r := elements.Get(fmt.Sprintf("%d.role", target)); r.Exists() {
			role = r.String()
		}
		st.ByRole[role]++

		app := doc.Get("screen_state.focused_app").String()
		if app == "" {
			app = "unknown"
		}
		st.ByApp[app]++

		action := doc.Get("action_type").String()
		if action == "" {
			action = "none"
		}
		st.ByAction[action]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if st.Samples > 0 {
		st.MeanCommand = float64(commandChars) / float64(st.Samples)
	}
	return st, nil
}

// Match is one line's query result.
type Match struct {
	Line  int         `json:"line"`
	Value interface{} `json:"value"`
}

// Query evaluates a JSONPath or gjson path against every line of path. Lines
// where the path matches nothing are omitted. limit <= 0 means no limit.
func Query(path, expr string, limit int) ([]Match, error) {
	if _, err := query.ToGJSON(expr); err != nil {
		return nil, err
	}

	var out []Match
	err := ScanFile(path, func(line int, raw []byte) error {
		res, err := query.Path(raw, expr)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !res.Exists() {
			return nil
		}
		out = append(out, Match{Line: line, Value: query.Value(res)})
		if limit > 0 && len(out) >= limit {
			return ErrStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
