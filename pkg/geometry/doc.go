// Package geometry holds the fixed page constants of the report layout.
//
// A [Geometry] answers the questions the paginator asks while filling a page:
// how much vertical room is left below a given y ([Geometry.RemainingHeight]),
// how many data rows still fit ([Geometry.RowsThatFit]) and where each column
// starts horizontally ([Geometry.XPositions]).
//
// All values are in PDF points (1/72 inch) and y grows downwards from the top
// edge of the page. UsableHeight is the absolute y below which nothing may be
// drawn, not a distance from the top margin.
//
// # Defaults
//
// [Default] returns a US Letter page (612x792) with a 40pt margin, a usable
// height of 712, a first content row at y=150 on pages that carry the banner,
// 20pt header rows, 14pt data rows and a 180pt column pitch.
//
// [Geometry.Validate] rejects configurations where a header row cannot be
// followed by at least one data row. Such a page could never make progress.
package geometry
