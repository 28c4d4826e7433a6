// Package risk holds the deterministic contract risk engine.
//
// Clause scores come from fixed keyword tables matched as case-insensitive
// substrings, never from the model's own opinion, so the same clause always
// gets the same score. Composite scores weight the worst clause above the
// average. Everything in this package is pure and safe for concurrent use.
package risk
