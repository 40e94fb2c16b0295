// Package align reconciles the reading and meaning line groups of a raw
// dictionary row into an ordered list of (readings, meanings) pairs and
// assembles normalized entries from them.
//
// Pure functions: text lines in, domain structs out. No I/O.
package align
