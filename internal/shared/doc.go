// Package shared holds code used across packages that belongs to no single
// layer. Its testutil subpackage provides a capturing slog handler and an
// in-memory document site for extractor tests.
package shared
