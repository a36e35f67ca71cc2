package service

import "reel-ingest/constant"

// OutcomeKind tags the result of one resolve/poll round-trip against the
// streaming provider. Keeping this a closed set lets the reconciler switch
// over every case instead of inferring progress from nullable fields.
type OutcomeKind string

const (
	// OutcomeNotYetAvailable means the provider is still working. Expected,
	// not an error.
	OutcomeNotYetAvailable OutcomeKind = "NOT_YET_AVAILABLE"
	// OutcomeTransient means the provider could not be reached; safe to retry.
	OutcomeTransient OutcomeKind = "TRANSIENT"
	// OutcomeResolved carries a durable asset handle; the asset is not yet
	// playable.
	OutcomeResolved OutcomeKind = "RESOLVED"
	// OutcomeReady carries a playable stream reference.
	OutcomeReady OutcomeKind = "READY"
	// OutcomePermanent means the asset can never become playable.
	OutcomePermanent OutcomeKind = "PERMANENT"
)

type Outcome struct {
	Kind            OutcomeKind
	AssetHandle     string
	StreamReference string
	Failure         constant.FailureKind
	Err             error
}

func NotYetAvailable() Outcome {
	return Outcome{Kind: OutcomeNotYetAvailable}
}

func Transient(err error) Outcome {
	return Outcome{Kind: OutcomeTransient, Err: err}
}

func Resolved(assetHandle string) Outcome {
	return Outcome{Kind: OutcomeResolved, AssetHandle: assetHandle}
}

func Ready(assetHandle, streamReference string) Outcome {
	return Outcome{Kind: OutcomeReady, AssetHandle: assetHandle, StreamReference: streamReference}
}

func Permanent(failure constant.FailureKind, err error) Outcome {
	return Outcome{Kind: OutcomePermanent, Failure: failure, Err: err}
}
