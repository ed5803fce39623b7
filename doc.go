// Package repsim measures how similar the internal representations of two
// neural networks (or two layers of one network) are.
//
// It implements the CCA family (SVCCA, PWCCA), Linear CKA and the Orthogonal
// Procrustes distance over activation matrices, together with the capture
// machinery that accumulates layer outputs across forward passes and the
// reshaping of convolutional activations into matrix form.
//
// Basic usage:
//
//	c1, _ := capture.New(model1, "block3.conv1")
//	c2, _ := capture.New(model2, "block3.conv1")
//
//	// run both models over the same inputs...
//
//	d, err := repsim.Distance(c1, c2,
//	    repsim.WithKind(distance.KindSVCCA),
//	    repsim.WithDownsampleSize(8),
//	)
//
// The package also ships a Fourier-perturbation sensitivity map (package
// fourier), snapshot persistence with pluggable compression (packages
// persistence and codec) and object-storage publication (package blobstore).
package repsim
