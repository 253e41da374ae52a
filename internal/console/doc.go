// Package console writes the user-facing side of kosu: colored status lines,
// progress marks, confirmation prompts and tables.
//
// Colors come from lipgloss and are dropped automatically when the output is
// not a terminal, which keeps captured output in tests plain.
package console
