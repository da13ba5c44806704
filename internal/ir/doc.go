// Package ir provides the identifier, argument, and program types shared by
// every stage of specialization and simulation.
//
// This package contains type definitions and encoding only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Identifiers are plain value types: compared and hashed by value
//   - GenericArg is sealed: only TypeArg and ValueArg implement it
//   - Literal values are int64; floats never enter the IR
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for map keys and content hashes
package ir
