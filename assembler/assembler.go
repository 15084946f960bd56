// Package assembler implements the two frame-group commit strategies the
// RX path uses to turn a stream of individual CAN frames into coherent
// multi-frame snapshots: bitmask-completion for fixed-size
// triplets (joint position, end-pose, echo targets) and
// all-arrived-or-age-timeout for the six-joint dynamics feedback that
// arrives as one frame per joint with no fixed ordering.
package assembler

// GroupSize is the number of frames in a bitmask-completion triplet.
const GroupSize = 3
