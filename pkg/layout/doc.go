// Package layout plans multi-page column layouts for the daily report.
//
// The planner is pure: it consumes already sorted, already formatted text rows
// grouped into [Column] values and produces a flat sequence of [Placement]
// instructions (banner, headers, rows and page breaks). Nothing is drawn here;
// package canvas replays a finished [Document] onto a drawing surface. Because a
// document is planned completely before the first drawing command, a
// configuration that cannot make progress is reported before any output exists.
//
// # Pagination
//
// [Paginate] drains one [Section]:
//
//  1. On the first page of the section a banner placement is emitted when requested.
//  2. Every column receives a header at the current y, even columns already drained.
//  3. The rows that fit below the headers are computed once for the page and each
//     column takes up to that many items from its queue, in order.
//  4. y advances by the tallest column plus a trailing gap.
//  5. If any queue still holds items, a page break is emitted and the loop continues
//     at the section's start y without a banner.
//
// Columns on one page share a single y; they are filled to the same page boundary
// regardless of how many items each holds.
//
// # Sections
//
// [Compose] renders sections in order. A section whose columns are all empty is
// skipped entirely. A section flagged FreshPage always begins on a new page; other
// sections continue below the previous one when a header plus one row still fits.
package layout
