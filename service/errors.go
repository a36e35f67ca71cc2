package service

import "errors"

var (
	// ErrHandleExpired means the provider no longer knows the upload handle;
	// resolution can never succeed for this record.
	ErrHandleExpired = errors.New("upload handle expired")

	// ErrNoPlayableVariant means the asset finished processing without a
	// public playback entry; it will never be playable.
	ErrNoPlayableVariant = errors.New("no playable variant")

	ErrNotFound  = errors.New("content record not found")
	ErrForbidden = errors.New("requester does not own this record")
)
