// Package ir provides the value model used for expectations in verdict.
//
// Every actual and expected value a test compares can be represented as an
// ir.Value: Null, String, Int, Bool, Array, or Object. The set is sealed so
// that equality, type membership, string conversion, and canonical
// serialization are total over it.
//
// Key design constraints:
//   - NO float types - numbers are int64; integral floats are folded to Int
//   - Equality is structural (value semantics), never identity
//   - Canonical JSON follows RFC 8785 and is the only input to content-addressed ids
//   - ir imports nothing internal; every other package may import ir
package ir
