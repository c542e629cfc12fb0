// Package split cuts concatenated corpus files into document fragments.
//
// A corpus file holds many complete documents back to back. Each fragment
// runs from a start marker (by default the XML declaration "<?xml version")
// to the first following end marker (by default "</us-patent-grant>"),
// both inclusive. Markers are matched case-insensitively and a fragment may
// span any number of lines.
//
// Files are read in a single forward pass, memory-mapped by default, so
// large weekly files are never copied into memory as a whole.
package split
