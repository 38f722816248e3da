package model

// AccountSnapshot is the immutable view of external account state captured
// once per evaluation pass. The decision engine reads it and never mutates
// it; position changes happen only through emitted decisions.
type AccountSnapshot struct {
	Position      Position // current position for the instrument under evaluation
	ExposureRatio float64  // sum of |holding value| over total portfolio value
}
