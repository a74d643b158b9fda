// Package roster turns raw club activity records into sorted, formatted report
// rows, one list per activity category.
//
// # Aggregation
//
// [Aggregate] sums the distance of every valid activity per athlete and
// category, so each participant appears at most once in a category:
//
//	totals, err := roster.Aggregate(activities, members, roster.Options{})
//	walks := totals.Items(roster.Walk) // "Doe, Jane — 3.10 mi", ...
//
// Records with a missing owner, a non-positive distance or an activity type
// that maps to no category are dropped without error. Club members with no
// valid record are listed under [NoActivity] with a zero distance.
//
// # Ordering
//
// Rows are sorted with locale-aware collation (golang.org/x/text/collate) on
// the key selected by [Options.SortKey]. Rows with equal keys keep the order in
// which their athletes first appeared in the input.
package roster
