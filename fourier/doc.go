// Package fourier measures model sensitivity to Fourier-basis perturbations
// of input images, after Yin et al. 2019, "A Fourier Perspective on Model
// Robustness in Computer Vision".
//
// A single frequency (together with its conjugate mirror) is turned into a
// spatial-domain basis image, scaled to a fixed L2 norm and added to the
// input batch; the loss degradation across all frequencies of the upper
// triangle of the frequency grid yields a sensitivity map, mirrored into the
// lower triangle by conjugate symmetry.
package fourier
