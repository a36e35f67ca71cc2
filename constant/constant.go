package constant

import "time"

type LifecycleState string

const (
	LifecycleStateProcessing LifecycleState = "PROCESSING"
	LifecycleStateReady      LifecycleState = "READY"
	LifecycleStateFailed     LifecycleState = "FAILED"
)

func (s LifecycleState) String() string {
	return string(s)
}

// Terminal reports whether no further reconciliation can change the state.
func (s LifecycleState) Terminal() bool {
	return s == LifecycleStateReady || s == LifecycleStateFailed
}

type FailureKind string

const (
	FailureKindNone              FailureKind = ""
	FailureKindHandleExpired     FailureKind = "HANDLE_EXPIRED"
	FailureKindNoPlayableVariant FailureKind = "NO_PLAYABLE_VARIANT"
)

// SlowProcessingThreshold is the soft elapsed-time threshold after which a
// still-processing record is reported as taking longer than usual. It is a
// UX hint only, never a hard deadline.
const SlowProcessingThreshold = 2 * time.Minute

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
