package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespaces of the wire-visible error codes.
const (
	ModuleName            = "launchpad"
	TokenFactoryCodespace = "tokenfactory"
)

// x/launchpad sentinel errors. The numeric codes are part of the wire
// format and must never change.
var (
	ErrOwnerOnly           = errorsmod.Register(ModuleName, 100, "owner only")
	ErrNotFound            = errorsmod.Register(ModuleName, 101, "not found")
	ErrAlreadyFinalized    = errorsmod.Register(ModuleName, 102, "launch already finalized")
	ErrLaunchNotActive     = errorsmod.Register(ModuleName, 103, "launch not active")
	ErrInvalidParams       = errorsmod.Register(ModuleName, 104, "insufficient amount")
	ErrBelowMinimum        = errorsmod.Register(ModuleName, 106, "below minimum purchase")
	ErrAmountTooHigh       = errorsmod.Register(ModuleName, 107, "amount too high")
	ErrLaunchNotEnded      = errorsmod.Register(ModuleName, 109, "launch not ended")
	ErrLaunchNotSuccessful = errorsmod.Register(ModuleName, 111, "launch not successful")
	ErrAlreadyClaimed      = errorsmod.Register(ModuleName, 112, "already claimed")
	ErrContractPaused      = errorsmod.Register(ModuleName, 115, "contract paused")
)

// Token-factory registration errors.
var (
	ErrNotAuthorized        = errorsmod.Register(TokenFactoryCodespace, 102, "not authorized")
	ErrRegistrationMismatch = errorsmod.Register(TokenFactoryCodespace, 104, "registration does not match launch")
)

// Internal error kinds that report the wire code of the sentinel they extend.
var (
	ErrLaunchNotFound        = newKind(ErrNotFound, "launch not found")
	ErrContributionNotFound  = newKind(ErrNotFound, "contribution not found")
	ErrNotFinalized          = newKind(ErrLaunchNotEnded, "launch not finalized")
	ErrAlreadyRefunded       = newKind(ErrAlreadyClaimed, "refund already taken")
	ErrMaxPurchaseExceeded   = newKind(ErrAmountTooHigh, "above maximum purchase")
	ErrHardCapExceeded       = newKind(ErrAmountTooHigh, "purchase exceeds hard cap")
	ErrAllocationOverflow    = newKind(ErrAmountTooHigh, "token allocation overflows")
	ErrTokenAlreadyDeployed  = newKind(ErrNotAuthorized, "token already registered for launch")
	ErrRegistrarUnauthorized = newKind(ErrNotAuthorized, "caller may not register tokens for launch")
)

// kindError is distinct under errors.Is from every other kind, while
// errors.Is(kind, base) holds and ABCIInfo reports the base's code.
type kindError struct {
	base *errorsmod.Error
	desc string
}

func newKind(base *errorsmod.Error, desc string) error {
	return &kindError{base: base, desc: desc}
}

func (e *kindError) Error() string     { return e.desc }
func (e *kindError) ABCICode() uint32  { return e.base.ABCICode() }
func (e *kindError) Codespace() string { return e.base.Codespace() }
func (e *kindError) Unwrap() error     { return e.base }

// CodeOf returns the codespace and numeric code carried by err.
// Errors without a registered code report the undefined codespace and code 1.
func CodeOf(err error) (string, uint32) {
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	return codespace, code
}
