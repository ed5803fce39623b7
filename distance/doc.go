// Package distance provides representation-similarity distances between two
// data matrices: SVCCA and PWCCA on top of package cca, Linear CKA (with an
// optional unbiased HSIC estimator) and the Orthogonal Procrustes distance.
//
// All functions take N×D matrices with data points in rows and features
// (neurons) in columns. The two matrices must hold the same N data points;
// feature counts may differ. Scores are distances in [0, 1], 0 meaning the
// representations are equivalent under the respective notion of alignment.
package distance
