// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
// Every caller follows the same three steps: compile the schema, unify the
// user document with one of its definitions, then validate and decode. Errors
// are rewritten so that each line carries the file name and the JSON-style
// path of the offending field:
//
//	config.cue: monitor.poll_interval: conflicting values 3 and string
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[map[string]any](
//	    schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
