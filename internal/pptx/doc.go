// Package pptx models a presentation package as an arena of named XML and
// media parts. It opens a template archive part-by-part, rewrites the
// package-wide manifests (content types, relationship lists, slide order),
// and serializes the result. Identifier allocation is a pure function of the
// arena contents so it can be tested without file I/O.
package pptx
