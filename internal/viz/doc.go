// Package viz rasterises tracer geometry in the terminal.
//
// Geometry is projected through a [Camera] onto a [Canvas] of braille
// characters, each cell holding 2x4 sub-pixels and one colour:
//
//   - points set one sub-pixel
//   - line segments are drawn with Bresenham's algorithm
//   - tube triangles are drawn as wireframe edges
//
// Primitives are painted far to near, so nearer colours win a cell. Vertex
// alpha darkens the colour against the background, which is how faded
// trails recede.
package viz
