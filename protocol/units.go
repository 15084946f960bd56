package protocol

import "math"

// Wire units: joint angles travel as signed 32-bit milli-degrees
// (1/1000 deg); end-effector translation travels as signed 32-bit
// micrometers; end-effector rotation travels as signed 32-bit
// milli-degrees, same as joints.

const milliDegreesPerRadian = 1000.0 * 180.0 / math.Pi

func milliDegreesToRadians(v int32) float64 {
	return float64(v) / milliDegreesPerRadian
}

func radiansToMilliDegrees(rad float64) int32 {
	return int32(math.Round(rad * milliDegreesPerRadian))
}

func micrometersToMeters(v int32) float64 {
	return float64(v) / 1_000_000.0
}

func metersToMicrometers(m float64) int32 {
	return int32(math.Round(m * 1_000_000.0))
}
