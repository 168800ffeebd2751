package budget

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mmDiagnosis/domain"

	"gopkg.in/yaml.v3"
)

//go:embed bands.yaml
var defaultBandsYAML []byte

var (
	ErrEmptyTable   = errors.New("budget table has no bands")
	ErrBandGap      = errors.New("budget bands must be contiguous from 0")
	ErrOpenBand     = errors.New("only the last budget band may be open-ended")
	ErrDuplicateID  = errors.New("duplicate budget band id")
	ErrInvalidRange = errors.New("budget band max must be greater than min")
)

// Table is an ordered, gapless set of budget bands covering [0, ∞).
type Table struct {
	Version string              `yaml:"version"`
	Bands   []domain.BudgetBand `yaml:"bands"`
}

// DefaultTable parses the embedded canonical band table.
func DefaultTable() (*Table, error) {
	return LoadTable(defaultBandsYAML)
}

// LoadTable parses and validates a YAML band table.
func LoadTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse budget table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that bands are contiguous and only the last is open.
func (t *Table) Validate() error {
	if len(t.Bands) == 0 {
		return ErrEmptyTable
	}

	seen := make(map[string]struct{}, len(t.Bands))
	expectMin := 0
	for i, b := range t.Bands {
		if b.ID == "" {
			return fmt.Errorf("budget band %d: missing id", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		seen[b.ID] = struct{}{}

		if b.Min != expectMin {
			return fmt.Errorf("%w: band %s starts at %d, want %d", ErrBandGap, b.ID, b.Min, expectMin)
		}
		if b.Max == nil {
			if i != len(t.Bands)-1 {
				return fmt.Errorf("%w: %s", ErrOpenBand, b.ID)
			}
			continue
		}
		if *b.Max <= b.Min {
			return fmt.Errorf("%w: %s", ErrInvalidRange, b.ID)
		}
		expectMin = *b.Max
	}

	if t.Bands[len(t.Bands)-1].Max != nil {
		return fmt.Errorf("%w: last band %s is closed", ErrBandGap, t.Bands[len(t.Bands)-1].ID)
	}

	return nil
}

// ByID finds a band by id, case-insensitively.
func (t *Table) ByID(id string) (domain.BudgetBand, bool) {
	if i := t.Index(id); i >= 0 {
		return t.Bands[i], true
	}
	return domain.BudgetBand{}, false
}

// Index is the position of a band in the table, or -1.
func (t *Table) Index(id string) int {
	for i, b := range t.Bands {
		if strings.EqualFold(b.ID, id) {
			return i
		}
	}
	return -1
}

// ForPrice returns the band containing price.
func (t *Table) ForPrice(price int) (domain.BudgetBand, bool) {
	if price < 0 {
		return domain.BudgetBand{}, false
	}
	for _, b := range t.Bands {
		if b.Contains(price) {
			return b, true
		}
	}
	return domain.BudgetBand{}, false
}

// Distance is the absolute index difference between two bands.
func (t *Table) Distance(a, b string) (int, bool) {
	ia, ib := t.Index(a), t.Index(b)
	if ia < 0 || ib < 0 {
		return 0, false
	}
	if ia > ib {
		return ia - ib, true
	}
	return ib - ia, true
}

// Adjacent returns the bands within distance 1 of id, in table order,
// including the band itself.
func (t *Table) Adjacent(id string) []domain.BudgetBand {
	i := t.Index(id)
	if i < 0 {
		return nil
	}
	out := make([]domain.BudgetBand, 0, 3)
	for j := i - 1; j <= i+1; j++ {
		if j >= 0 && j < len(t.Bands) {
			out = append(out, t.Bands[j])
		}
	}
	return out
}

var (
	rangePattern = regexp.MustCompile(`^(\d*)-(\d*)$`)
	fullWidth    = strings.NewReplacer(
		"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
		"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	)
	separators = strings.NewReplacer(
		"〜", "-", "～", "-", "~", "-", "ー", "-", "－", "-", "to", "-",
	)
	noise = strings.NewReplacer(
		"円", "", "¥", "", "￥", "", "yen", "", ",", "", "，", "", " ", "", "　", "",
		"以下", "", "以上", "", "まで", "",
	)
	// cut before separators run, since "to" is itself a separator
	upperPrefixes = []string{"up to", "upto", "under", "below"}
)

// Resolve maps a free-form budget answer onto a band. Accepted forms are a
// band id, a single amount ("5000", "5,000円"), a range ("3000-5999",
// "3000〜5999") and open ranges ("~3000", "20000-", "3000円以下",
// "up to 3000"). A range resolves to the band containing its lower bound; an
// upper-bound-only range resolves to the band containing the last yen below
// that bound.
func (t *Table) Resolve(signal string) (domain.BudgetBand, bool) {
	s := strings.TrimSpace(signal)
	if s == "" {
		return domain.BudgetBand{}, false
	}
	if b, ok := t.ByID(s); ok {
		return b, true
	}

	s = strings.ToLower(fullWidth.Replace(s))
	upperOnly := strings.Contains(s, "以下") || strings.Contains(s, "まで")
	for _, p := range upperPrefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			s, upperOnly = rest, true
			break
		}
	}
	s = noise.Replace(separators.Replace(s))

	if n, err := strconv.Atoi(s); err == nil && !strings.ContainsAny(s, "+-") {
		if upperOnly && n > 0 {
			n--
		}
		return t.ForPrice(n)
	}

	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return domain.BudgetBand{}, false
	}

	lo, loErr := strconv.Atoi(m[1])
	hi, hiErr := strconv.Atoi(m[2])
	switch {
	case loErr == nil && hiErr == nil:
		if hi < lo {
			lo = hi
		}
		return t.ForPrice(lo)
	case loErr == nil:
		return t.ForPrice(lo)
	case hiErr == nil:
		if hi > 0 {
			hi--
		}
		return t.ForPrice(hi)
	}

	return domain.BudgetBand{}, false
}
