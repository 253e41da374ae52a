// Package environment builds conda environment descriptors for courses.
//
// A descriptor has a name, channels and an ordered dependency list whose last
// element is a mapping holding pip requirements. Merging course additions into
// the base manifest keeps that pip block last.
package environment
