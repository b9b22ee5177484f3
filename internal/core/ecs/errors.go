package ecs

import "errors"

// Programmer-logic errors. They are returned at the call site that caused
// them, wrapped with the offending EGID or group, and never retried.
var (
	ErrDuplicateBuild     = errors.New("ecs: entity already built")
	ErrNotFound           = errors.New("ecs: entity not found")
	ErrInvalidQuery       = errors.New("ecs: component not declared for group")
	ErrUnknownGroup       = errors.New("ecs: unknown group")
	ErrDescriptorMismatch = errors.New("ecs: descriptor does not match group")
	ErrSchemaFrozen       = errors.New("ecs: schema is frozen")
	ErrInvalidDescriptor  = errors.New("ecs: invalid descriptor")
)

// ErrSubmitted is returned when an Initializer is written after the flush
// that consumed it.
var ErrSubmitted = errors.New("ecs: initializer already submitted")
