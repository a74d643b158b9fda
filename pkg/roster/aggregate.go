package roster

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// Line is one participant's result in one category.
type Line struct {
	Owner     string   `json:"owner"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Category  Category `json:"category"`

	// Distance is expressed in Unit.
	Distance float64 `json:"distance"`
	Unit     Unit    `json:"unit"`

	// Activities is the number of records summed into the line.
	Activities int `json:"activities"`
}

// Text formats the line as a report row, e.g. "Doe, Jane — 3.10 mi".
func (l Line) Text() string {
	return fmt.Sprintf("%s — %.2f %s", DisplayName(l.FirstName, l.LastName), l.Distance, l.Unit)
}

// DisplayName renders "Last, First", or whichever part is present.
func DisplayName(first, last string) string {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return last + ", " + first
}

// Totals is the aggregated, sorted result of one run.
type Totals struct {
	lines map[Category][]Line

	// Active counts distinct athletes with at least one valid record.
	Active int `json:"active"`

	// Inactive counts members listed under NoActivity.
	Inactive int `json:"inactive"`

	// Skipped counts records dropped as incomplete or unrecognized.
	Skipped int `json:"skipped"`
}

// Lines returns the sorted lines of c.
func (t *Totals) Lines(c Category) []Line {
	return t.lines[c]
}

// Items returns the formatted rows of c in report order.
func (t *Totals) Items(c Category) []string {
	lines := t.lines[c]
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

// Count returns the number of rows across every category.
func (t *Totals) Count() int {
	n := 0
	for _, l := range t.lines {
		n += len(l)
	}
	return n
}

// Distance returns the summed distance of c in the display unit.
func (t *Totals) Distance(c Category) float64 {
	d := 0.0
	for _, l := range t.lines[c] {
		d += l.Distance
	}
	return d
}

type lineKey struct {
	owner    string
	category Category
}

// Aggregate buckets activities into categories, sums distances per athlete and
// category, lists members without activity under NoActivity and sorts every
// category. Invalid records are skipped; only invalid options return an error.
func Aggregate(activities []Activity, members []Member, opts Options) (*Totals, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tag, err := language.Parse(opts.Locale)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid locale %q", opts.Locale)
	}

	t := &Totals{lines: make(map[Category][]Line, len(Categories))}
	index := make(map[lineKey]int)
	active := make(map[string]bool)

	for _, a := range activities {
		c, ok := a.valid()
		if !ok {
			t.Skipped++
			continue
		}
		owner := a.Owner()
		active[owner] = true

		k := lineKey{owner, c}
		i, seen := index[k]
		if !seen {
			i = len(t.lines[c])
			index[k] = i
			t.lines[c] = append(t.lines[c], Line{
				Owner:     owner,
				FirstName: strings.TrimSpace(a.FirstName),
				LastName:  strings.TrimSpace(a.LastName),
				Category:  c,
				Unit:      opts.Unit,
			})
		}
		t.lines[c][i].Distance += opts.Unit.Convert(a.Distance)
		t.lines[c][i].Activities++
	}
	t.Active = len(active)

	listed := make(map[string]bool)
	for _, m := range members {
		id := m.Identity()
		if id == "" || active[id] || listed[id] {
			continue
		}
		listed[id] = true
		t.lines[NoActivity] = append(t.lines[NoActivity], Line{
			Owner:     id,
			FirstName: strings.TrimSpace(m.FirstName),
			LastName:  strings.TrimSpace(m.LastName),
			Category:  NoActivity,
			Unit:      opts.Unit,
		})
	}
	t.Inactive = len(t.lines[NoActivity])

	col := collate.New(tag, collate.IgnoreCase)
	for _, c := range Categories {
		sortLines(t.lines[c], col, opts.SortKey)
	}
	return t, nil
}

// sortLines orders lines by key with stable ties. Keys are computed once.
func sortLines(lines []Line, col *collate.Collator, by SortKey) {
	type keyed struct {
		key  string
		line Line
	}
	ks := make([]keyed, len(lines))
	for i, l := range lines {
		ks[i] = keyed{sortKey(l, by), l}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return col.CompareString(a.key, b.key)
	})
	for i := range ks {
		lines[i] = ks[i].line
	}
}

func sortKey(l Line, by SortKey) string {
	switch by {
	case BySurnameInitial:
		r, size := utf8.DecodeRuneInString(l.LastName)
		if size == 0 {
			return ""
		}
		return string(r)
	case ByFirstName:
		return l.FirstName + " " + l.LastName
	default:
		return l.LastName + " " + l.FirstName
	}
}
