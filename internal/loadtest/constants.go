package loadtest

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)

// Score bounds enforced by the engine's normalization.
const (
	ScoreMin = 1.0
	ScoreMax = 10.0
)
