// Package canonical produces the one byte string a settlement document hashes
// to.
//
// Rules:
//   - objects: keys sorted by UTF-16 code units, rendered "key":value, joined
//     by "," inside {}
//   - arrays: elements in their given order, joined by "," inside []
//   - numbers: integers only, plain decimal digits; anything fractional is an
//     encoding error
//   - strings: quotes, backslashes and C0 controls escaped exactly as
//     JSON.stringify does, everything else written as UTF-8
//   - null, true, false: literal tokens
//
// No whitespace is ever emitted.
package canonical
