// Package document holds the record model shared by every pipeline
// operator: schema-less JSON documents, ordered datasets, and the
// slash-delimited paths that address values inside a document.
//
// Paths are parsed once into a structured form and carried through all
// reads and writes; resolution never panics. A path that does not lead
// to a value reports MISSING (ok == false) rather than an error, so
// operators treat absent data as ordinary input.
package document

// Document is one schema-less record: a JSON object tree whose values
// are nested objects (map[string]any), arrays ([]any), or scalars.
// Document is an alias, not a defined type, so nested objects produced
// by encoding/json resolve the same way as top-level ones.
//
// A document is immutable once registered in a dataset; operators that
// rewrite records (join, map) construct fresh output documents and may
// share unmodified subtrees with their inputs.
type Document = map[string]any

// Dataset is an ordered sequence of documents registered under one
// name. Order is insertion order from materialization or from the
// producing operator.
type Dataset []Document
