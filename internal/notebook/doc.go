// Package notebook transforms Jupyter notebooks for distribution.
//
// A Processor filters cells by tag according to the Mode, clears outputs of
// student copies, and reports the local images and remote data URLs the kept
// cells reference. A Stripper clears outputs of master copies in place, either
// through the external nbstripout tool or natively.
//
// Unknown notebook and cell fields survive a round trip untouched.
package notebook
