// Package inference runs the pre-trained journal and selfie classifiers in
// process.
//
// A model document (served by GET /models/{kind}) is a small feed-forward
// network. Three interchangeable backends compute its dense layers:
// Parallel spreads output units across goroutines, Unrolled computes dot
// products four terms at a time, and CPU is the plain baseline. Tensors
// borrow pooled buffers; Run releases its intermediates before returning.
package inference
