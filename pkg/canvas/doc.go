// Package canvas draws planned report documents onto drawing surfaces.
//
// A [Canvas] accepts three commands: draw text, draw an image and start a new
// page. [Replay] walks a [layout.Document] and issues those commands in order.
// Planning happens entirely in package layout, so a canvas is never touched
// for a document whose geometry turned out to be unusable.
//
// Two canvases ship with the module: [Recorder], which captures the command
// stream and finalizes it as JSON, and the PDF canvas in package
// [github.com/matzehuels/clubreport/pkg/canvas/pdf].
//
// Finalization is the single commit point of a render: until
// [Finalizer.Finalize] writes the artifact, nothing has been produced.
package canvas
