package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("insufficient user data, 'id' or 'subject' must be present")
	ErrSubjectEmpty           = errors.New("subject cannot be empty")
	ErrUserNotFound           = errors.New("user not found")
	ErrRoleNotFound           = errors.New("role not found")
	ErrPolicyNotFound         = errors.New("policy not found")
	ErrRoleExists             = errors.New("role already exists")
	ErrPolicyExists           = errors.New("policy already exists")
	ErrEmptyRole              = errors.New("role does not contain any policies")
	ErrRoleCannotBeEmpty      = errors.New("removing the policy would leave the role empty")
	ErrRoleAttachedOnUsers    = errors.New("role is attached on users and forceRemove is not set")
	ErrRoleAlreadyOnUser      = errors.New("role already attached on user")
	ErrRoleNotAttachedOnUser  = errors.New("role not attached on user")
	ErrPolicyAlreadyOnRole    = errors.New("policy already attached on role")
	ErrPolicyAlreadyOnUser    = errors.New("policy already attached on user")
	ErrPolicyNotAttachedRole  = errors.New("policy not attached on role")
	ErrPolicyNotAttachedUser  = errors.New("policy not attached on user")
	ErrInsufficientPolicyData = errors.New("either policyId or resource and action must be provided")
	ErrConflictingPolicyData  = errors.New("policyId and resource/action identify different policies")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrInternal               = errors.New("internal error")
)

// Kind is the transport-neutral error category hosts map to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindInvalidInput
)

// KindOf classifies a domain error. Anything unrecognized is internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrPolicyNotFound):
		return KindNotFound
	case errors.Is(err, ErrRoleExists),
		errors.Is(err, ErrPolicyExists),
		errors.Is(err, ErrRoleAlreadyOnUser),
		errors.Is(err, ErrPolicyAlreadyOnRole),
		errors.Is(err, ErrPolicyAlreadyOnUser),
		errors.Is(err, ErrConcurrentModification):
		return KindConflict
	case errors.Is(err, ErrEmptyRole),
		errors.Is(err, ErrRoleCannotBeEmpty),
		errors.Is(err, ErrRoleAttachedOnUsers),
		errors.Is(err, ErrRoleNotAttachedOnUser),
		errors.Is(err, ErrPolicyNotAttachedRole),
		errors.Is(err, ErrPolicyNotAttachedUser):
		return KindPreconditionFailed
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrSubjectEmpty),
		errors.Is(err, ErrInsufficientPolicyData),
		errors.Is(err, ErrConflictingPolicyData):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// IsDomain reports whether err is one of the recognized domain errors.
// Transactions re-throw domain errors verbatim and wrap everything else
// as internal.
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	if KindOf(err) != KindInternal {
		return true
	}
	return errors.Is(err, ErrInternal)
}
