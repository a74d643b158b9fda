package roster

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/clubreport/pkg/errors"
)

func walk(first, last string, meters float64) Activity {
	return Activity{FirstName: first, LastName: last, Type: "Walk", Distance: meters}
}

func TestAggregate(t *testing.T) {
	activities := []Activity{
		walk("Jane", "Doe", 1609.34),
		{FirstName: "Rick", LastName: "Roe", Type: "Run", Distance: 5000},
		walk("Jane", "Doe", 1609.34),
		{FirstName: "Jane", LastName: "Doe", Type: "TrailRun", Distance: 1609.34 / 2},
		{FirstName: "Zoe", LastName: "Ray", Type: "Yoga", Distance: 3000},
		{FirstName: "Zoe", LastName: "Ray", Type: "Hike", Distance: 0},
		{Type: "Walk", Distance: 1000},
		{FirstName: "Max", LastName: "Moe", Type: "Ride", Distance: math.NaN()},
	}
	members := []Member{
		{FirstName: "jane ", LastName: "DOE"},
		{FirstName: "Rick", LastName: "Roe"},
		{FirstName: "Ann", LastName: "Poe"},
		{FirstName: "Zoe", LastName: "Ray"},
		{FirstName: "Ann", LastName: "Poe"},
	}

	totals, err := Aggregate(activities, members, Options{})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := map[Category][]string{
		Walk:       {"Doe, Jane — 2.00 mi"},
		Run:        {"Doe, Jane — 0.50 mi", "Roe, Rick — 3.11 mi"},
		Ride:       {},
		Hike:       {},
		NoActivity: {"Poe, Ann — 0.00 mi", "Ray, Zoe — 0.00 mi"},
	}
	for _, c := range Categories {
		if diff := cmp.Diff(want[c], totals.Items(c), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s items (-want +got):\n%s", c, diff)
		}
	}
	if totals.Active != 2 || totals.Inactive != 2 || totals.Skipped != 4 {
		t.Errorf("Active/Inactive/Skipped = %d/%d/%d, want 2/2/4", totals.Active, totals.Inactive, totals.Skipped)
	}
	if totals.Count() != 5 {
		t.Errorf("Count() = %d, want 5", totals.Count())
	}
	if got := totals.Lines(Walk)[0].Activities; got != 2 {
		t.Errorf("walk line sums %d activities, want 2", got)
	}
}

func TestAggregateOwnerID(t *testing.T) {
	activities := []Activity{
		{OwnerID: "42", FirstName: "Jane", LastName: "Doe", Type: "Walk", Distance: 1000},
	}
	members := []Member{
		{ID: "42", FirstName: "Janet", LastName: "Doe"},
		{ID: "43", FirstName: "Jane", LastName: "Doe"},
	}
	totals, err := Aggregate(activities, members, Options{Unit: Kilometers})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Doe, Jane — 0.00 km"}, totals.Items(NoActivity)); diff != "" {
		t.Errorf("no-activity items (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Doe, Jane — 1.00 km"}, totals.Items(Walk)); diff != "" {
		t.Errorf("walk items (-want +got):\n%s", diff)
	}
}

func TestAggregateSort(t *testing.T) {
	activities := []Activity{
		walk("Adam", "Zed", 1000),
		walk("Al", "Dunn", 1000),
		walk("Eva", "Ågren", 1000),
		walk("Carl", "berg", 1000),
		walk("Jane", "Doe", 1000),
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "surname",
			opts: Options{SortKey: BySurname, Locale: "en"},
			want: []string{"Ågren, Eva", "berg, Carl", "Doe, Jane", "Dunn, Al", "Zed, Adam"},
		},
		{
			name: "swedish collation",
			opts: Options{SortKey: BySurname, Locale: "sv"},
			want: []string{"berg, Carl", "Doe, Jane", "Dunn, Al", "Zed, Adam", "Ågren, Eva"},
		},
		{
			name: "surname initial keeps input order on ties",
			opts: Options{SortKey: BySurnameInitial},
			want: []string{"Ågren, Eva", "berg, Carl", "Dunn, Al", "Doe, Jane", "Zed, Adam"},
		},
		{
			name: "first name",
			opts: Options{SortKey: ByFirstName},
			want: []string{"Zed, Adam", "Dunn, Al", "berg, Carl", "Ågren, Eva", "Doe, Jane"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := Aggregate(activities, nil, tt.opts)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			var got []string
			for _, l := range totals.Lines(Walk) {
				got = append(got, DisplayName(l.FirstName, l.LastName))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregateDeterministic(t *testing.T) {
	activities := []Activity{
		walk("Jane", "Doe", 1200),
		{FirstName: "Rick", LastName: "Roe", Type: "Ride", Distance: 20000},
		walk("Ann", "Doe", 800),
	}
	members := []Member{{FirstName: "Bo", LastName: "Bee"}}

	a, err := Aggregate(activities, members, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Aggregate(activities, members, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range Categories {
		if diff := cmp.Diff(a.Items(c), b.Items(c)); diff != "" {
			t.Errorf("%s differs between runs:\n%s", c, diff)
		}
	}
}

func TestAggregateInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unit", Options{Unit: "ft"}},
		{"sort key", Options{SortKey: "age"}},
		{"locale", Options{Locale: "not a locale!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(nil, nil, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Aggregate() error = %v, want %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Walk", Walk, true},
		{"run", Run, true},
		{"TrailRun", Run, true},
		{"EBikeRide", Ride, true},
		{"VirtualRide", Ride, true},
		{"GravelRide", Ride, true},
		{"MountainBikeRide", Ride, true},
		{" Hike ", Hike, true},
		{"Swim", "", false},
		{"NoActivity", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCategoryText(t *testing.T) {
	var c Category
	if err := c.UnmarshalText([]byte("no activity")); err != nil || c != NoActivity {
		t.Errorf("UnmarshalText(no activity) = %q, %v", c, err)
	}
	if err := c.UnmarshalText([]byte("ride")); err != nil || c != Ride {
		t.Errorf("UnmarshalText(ride) = %q, %v", c, err)
	}
	if err := c.UnmarshalText([]byte("swim")); err == nil {
		t.Error("UnmarshalText(swim) succeeded")
	}
	if NoActivity.Title() != "No Activity" || Walk.Title() != "Walk" {
		t.Error("unexpected titles")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct{ first, last, want string }{
		{"Jane", "Doe", "Doe, Jane"},
		{"Jane", "", "Jane"},
		{"", "Doe", "Doe"},
		{" Jane ", " D. ", "D., Jane"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.first, tt.last); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}
