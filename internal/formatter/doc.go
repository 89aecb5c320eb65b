// Package formatter implements the declarative, non-Turing-complete
// alternative to the template language: per-role formatters composed of
// literal, placeholder, and special-token components.
//
// It suits models whose chat format needs no control flow. Formats with
// conditionals, loops, or reasoning blocks use the template package
// instead.
package formatter
