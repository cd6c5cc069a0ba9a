// Package imageprep turns a captured frame and a face box into the tensor
// the selfie model expects, and into the JPEG the server stores.
package imageprep
