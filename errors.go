package ioengine

import "github.com/mayastor-io/io-engine-core/internal/errs"

// Error, ErrorCode and friends are re-exported at the module root so
// external callers of Bootstrap don't need to reach into internal/errs
// directly; the reactor and nexus packages construct and return these
// same values.
type (
	Error     = errs.Error
	ErrorCode = errs.ErrorCode
)

const (
	CodeReactorConfigure = errs.CodeReactorConfigure
	CodeSpawnDispatch    = errs.CodeSpawnDispatch
	CodeChannelIO        = errs.CodeChannelIO
	CodeChildIO          = errs.CodeChildIO
)

var (
	NewError     = errs.NewError
	NewCoreError = errs.NewCoreError
	IsCode       = errs.IsCode
)
