package util

import "errors"

var (
	ErrEmptySelection    = errors.New("no eligible questions for this configuration")
	ErrInvalidQuestion   = errors.New("question is not part of the session")
	ErrAlreadyTerminated = errors.New("session already terminated")
	ErrImageEmbed        = errors.New("image embed failed")
	ErrOffline           = errors.New("network is offline")
	ErrBuildInProgress   = errors.New("an offline bundle build is already in progress")

	ErrNoActiveSession  = errors.New("no active session")
	ErrBundleNotFound   = errors.New("offline bundle not found")
	ErrModeMismatch     = errors.New("operation not allowed in this session mode")
	ErrInvalidMode      = errors.New("invalid session mode")
	ErrQuestionLocked   = errors.New("question already answered in study mode")
	ErrPermissionDenied = errors.New("permission denied")
)
