// Package bibtex reads and writes BibTeX files.
//
// The reader understands regular entries (@article{key, name = {value}}),
// quoted and bare values, nested braces, # concatenation and @string
// macros. @comment and @preamble blocks are skipped. Field values are kept
// verbatim apart from stripping the outer delimiters and collapsing runs of
// whitespace, so searches see the text as written.
package bibtex
