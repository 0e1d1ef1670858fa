// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the 3-step CUE parsing pattern used by the build
// script loader and the config package:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// # Usage
//
//	//go:embed build_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Build](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Build",
//	    cueutil.WithFilename("build.cue"),
//	)
//	if err != nil {
//	    return nil, err  // *ValidationError carries the CUE path of every problem
//	}
//	return result.Value, nil
package cueutil
