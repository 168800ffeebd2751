package domain

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Answers is the questionnaire state collected by the UI.
// Every field is optional. Keys the engine does not know are kept in Extra
// so a newer client can round-trip them, but they never affect scoring.
type Answers struct {
	Version            int      `json:"version,omitempty"`
	Posture            string   `json:"posture,omitempty"`
	Postures           []string `json:"postures,omitempty"`
	Rollover           string   `json:"rollover,omitempty"`
	NeckShoulderIssues []string `json:"neck_shoulder_issues,omitempty"`
	Snoring            string   `json:"snoring,omitempty"`
	MorningFatigue     string   `json:"morning_fatigue,omitempty"`
	HeatSensitivity    string   `json:"heat_sensitivity,omitempty"`
	MattressFirmness   string   `json:"mattress_firmness,omitempty"`
	Adjustability      string   `json:"adjustability,omitempty"`
	Material           string   `json:"material,omitempty"`
	Size               string   `json:"size,omitempty"`
	Budget             string   `json:"budget,omitempty"`

	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes leniently: a scalar where a list is expected becomes
// a one-element list, a list where a scalar is expected keeps its first
// element, and values of any other shape are dropped.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Answers{}
	for key, v := range raw {
		switch key {
		case "version":
			if n, err := strconv.Atoi(scalarString(v)); err == nil {
				a.Version = n
			}
		case "posture":
			a.Posture = scalarString(v)
		case "postures":
			a.Postures = listStrings(v)
		case "rollover":
			a.Rollover = scalarString(v)
		case "neck_shoulder_issues":
			a.NeckShoulderIssues = listStrings(v)
		case "snoring":
			a.Snoring = scalarString(v)
		case "morning_fatigue":
			a.MorningFatigue = scalarString(v)
		case "heat_sensitivity":
			a.HeatSensitivity = scalarString(v)
		case "mattress_firmness":
			a.MattressFirmness = scalarString(v)
		case "adjustability":
			a.Adjustability = scalarString(v)
		case "material":
			a.Material = scalarString(v)
		case "size":
			a.Size = scalarString(v)
		case "budget":
			a.Budget = rawScalar(v)
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[key] = v
		}
	}

	return nil
}

// MarshalJSON writes the known fields and then the preserved unknown keys.
func (a Answers) MarshalJSON() ([]byte, error) {
	type plain Answers
	b, err := json.Marshal(plain(a))
	if err != nil || len(a.Extra) == 0 {
		return b, err
	}

	merged := map[string]any{}
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.Extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}

	return json.Marshal(merged)
}

// AllPostures merges the single and multi-select posture answers, deduplicated.
func (a Answers) AllPostures() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(a.Postures)+1)
	for _, p := range append([]string{a.Posture}, a.Postures...) {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ToMap flattens the answers for JSON persistence.
func (a Answers) ToMap() map[string]any {
	out := map[string]any{}
	b, err := json.Marshal(a)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}

func scalarString(v any) string {
	return strings.ToLower(rawScalar(v))
}

func rawScalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		for _, e := range t {
			if s := rawScalar(e); s != "" {
				return s
			}
		}
	}
	return ""
}

func listStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := scalarString(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalarString(v); s != "" {
			return []string{s}
		}
	}
	return nil
}
