package dto

import (
	"github.com/google/uuid"

	"reel-ingest/constant"
)

type SubmitRequest struct {
	OwnerID      uuid.UUID `json:"ownerId" binding:"required"`
	SourceObject string    `json:"sourceObject" binding:"required"`
}

type SubmitResponse struct {
	ID             uuid.UUID               `json:"id"`
	UploadHandle   string                  `json:"uploadHandle"`
	LifecycleState constant.LifecycleState `json:"lifecycleState"`
}

// VideoStatusResponse is the record as shown to the app, plus the soft
// still-processing hint the UI renders as "taking longer than usual".
type VideoStatusResponse struct {
	ID              uuid.UUID               `json:"id"`
	OwnerID         uuid.UUID               `json:"ownerId"`
	LifecycleState  constant.LifecycleState `json:"lifecycleState"`
	FailureKind     constant.FailureKind    `json:"failureKind,omitempty"`
	StreamReference string                  `json:"streamReference,omitempty"`
	SlowProcessing  bool                    `json:"slowProcessing"`
}

// OrphanedAssetMessage is published when the provider-side delete of an
// asset fails during a cascading delete, so the sweep consumer can retry it.
type OrphanedAssetMessage struct {
	RecordID    uuid.UUID `json:"recordId"`
	AssetHandle string    `json:"assetHandle"`
}
