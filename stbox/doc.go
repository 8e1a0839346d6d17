// Package stbox provides the spatiotemporal bounding box used as the key of
// the TRTREE index.
//
// A BoundingBox carries an optional spatial extent (X/Y, optionally Z), an
// optional time period and a spatial reference identifier (SRID). Boxes
// cross the host-engine boundary as fixed-size binary records (see Encode and
// Decode); every box is normalized to SRID 0 before it is compared against
// another box.
package stbox
