// Package shielderr defines the flat tagged error kind shared by every
// component of the security-state core, rather than scattering per-package
// sentinel errors the way the teacher's core package does.
package shielderr

import (
	"errors"
	"fmt"
)

// Kind enumerates every failure surfaced by this module, per spec.md §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindIndexNotHardened
	KindIndexOverflow
	KindCannotAddMoreToIndexSinceItWouldChangeKeySpace
	KindWrongEntityKindOfInFactorInstancesPath
	KindWrongKeyKindOfTransactionSigningFactorInstance
	KindWrongKeyKindOfAuthenticationSigningFactorInstance
	KindAuthenticationSigningFactorInstanceNotSecurified
	KindSecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind
	KindMissingRolaKeyForSecurityStructureOfFactorInstances
	KindMissingFactorMappingInstancesIntoRole
	KindTooFewFactorInstancesDerived
	KindProfileDoesNotContainFactorSourceWithID
	KindNoTransactionSigningFactorInstance
	KindNamedAddressesAreNotSupported
	KindInvalidInstructionsWrongNetwork
	KindInvalidManifestFailedToDecompile
	KindTXGuaranteeIndexOutOfBounds
	KindHostInteractionAborted
	KindAddressInvalidEntityType
	KindUnknownAccount
	KindDuplicateFactorSourceInRole
	KindInvalidCacheState
)

var kindNames = map[Kind]string{
	KindUnknown:                          "Unknown",
	KindIndexNotHardened:                 "IndexNotHardened",
	KindIndexOverflow:                    "IndexOverflow",
	KindCannotAddMoreToIndexSinceItWouldChangeKeySpace: "CannotAddMoreToIndexSinceItWouldChangeKeySpace",
	KindWrongEntityKindOfInFactorInstancesPath:         "WrongEntityKindOfInFactorInstancesPath",
	KindWrongKeyKindOfTransactionSigningFactorInstance: "WrongKeyKindOfTransactionSigningFactorInstance",
	KindWrongKeyKindOfAuthenticationSigningFactorInstance: "WrongKeyKindOfAuthenticationSigningFactorInstance",
	KindAuthenticationSigningFactorInstanceNotSecurified:  "AuthenticationSigningFactorInstanceNotSecurified",
	KindSecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind: "SecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind",
	KindMissingRolaKeyForSecurityStructureOfFactorInstances:             "MissingRolaKeyForSecurityStructureOfFactorInstances",
	KindMissingFactorMappingInstancesIntoRole:                           "MissingFactorMappingInstancesIntoRole",
	KindTooFewFactorInstancesDerived:                                    "TooFewFactorInstancesDerived",
	KindProfileDoesNotContainFactorSourceWithID:                         "ProfileDoesNotContainFactorSourceWithID",
	KindNoTransactionSigningFactorInstance:                              "NoTransactionSigningFactorInstance",
	KindNamedAddressesAreNotSupported:                                   "NamedAddressesAreNotSupported",
	KindInvalidInstructionsWrongNetwork:                                 "InvalidInstructionsWrongNetwork",
	KindInvalidManifestFailedToDecompile:                                "InvalidManifestFailedToDecompile",
	KindTXGuaranteeIndexOutOfBounds:                                     "TXGuaranteeIndexOutOfBounds",
	KindHostInteractionAborted:                                          "HostInteractionAborted",
	KindAddressInvalidEntityType:                                        "AddressInvalidEntityType",
	KindUnknownAccount:                                                  "UnknownAccount",
	KindDuplicateFactorSourceInRole:                                     "DuplicateFactorSourceInRole",
	KindInvalidCacheState:                                               "InvalidCacheState",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Error is the single error type returned by every package in this module.
// Detail carries kind-specific structured context (e.g. found/specified
// network) for callers that want more than the formatted message.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, shielderr.New(KindX, "")) to match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap adds context to err, tagging it with kind. Mirrors pkg/utils.Wrap from
// the teacher but returns a typed *Error instead of a plain wrapped error.
func Wrap(kind Kind, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// WithDetail attaches structured key/value context and returns the receiver
// for chaining at the construction site.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]any, 2)
	}
	e.Detail[key] = value
	return e
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindUnknown, false
}

// Is reports whether err is a shielderr.Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
