// Package installer downloads, extracts, and replaces the binary dependency
// bundle the speech plugin needs at runtime. Replacement of a live, possibly
// in-use install directory is staged: the directory is renamed to a trash
// sibling first, deletion is best-effort, and leftovers are swept at the
// next process startup once the OS has released its file locks.
package installer
