// Package cca computes Canonical Correlation Analysis between two data
// matrices holding the same data points in rows and (possibly different)
// features in columns.
//
// Two backends are available. The SVD backend (the default) follows
// Press 2011, "Canonical Correlation Clarified by Singular Value
// Decomposition", and tolerates rank-deficient inputs by truncating to the
// numerical rank. The QR backend is cheaper on tall full-rank matrices but
// fails when a triangular factor is singular.
package cca
