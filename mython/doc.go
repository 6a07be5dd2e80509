// Package mython implements an interpreter for a small Python-flavoured
// language:
//   - Indentation-delimited blocks, two spaces per level.
//   - Integers, strings, booleans and None; no floats or collections.
//   - Classes with single inheritance, fields, and methods; the special
//     methods __init__, __str__, __eq__, __lt__ and __add__ are consulted
//     for construction, printing, comparison and addition.
//   - if/else, assignment, print, str(x), and method calls. There are no
//     loops, free functions, or imports.
//
// The pipeline is NewLexer -> Parse -> Program.Run. Run takes a
// caller-owned top-level scope and a Context carrying the output sink; all
// failures surface as *LexerError, *ParseError or *RuntimeError.
package mython
