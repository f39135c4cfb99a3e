// Package admin implements the authorization/pause surface (C7): an
// AuthorizationList of auth users and guardians, a per-user-class pause
// registry, and authority transfer gated by the governance multisig.
// Generalised from the teacher's native/common.PauseView/Guard (a single
// module-wide pause bool) into spec.md's richer per-class list.
package admin

import (
	"errors"

	"vaultcore/pubkey"
)

// MaxAuthCount bounds both AuthUsers and Guardians, ported from
// original_source/programs/liquidity/src/constants.rs's MAX_AUTH_COUNT.
const MaxAuthCount = 10

// MaxUserClasses bounds UserClasses, ported from the same file's
// MAX_USER_CLASSES.
const MaxUserClasses = 100

var (
	ErrOnlyAuth           = errors.New("admin: caller is not an authorized user")
	ErrOnlyGuardian       = errors.New("admin: caller is not a guardian")
	ErrOnlyGovernance     = errors.New("admin: only the governance multisig may perform this action")
	ErrAuthListFull        = errors.New("admin: authorization list is at MaxAuthCount")
	ErrUserClassListFull   = errors.New("admin: user class list is at MaxUserClasses")
	ErrAlreadyAuthorized   = errors.New("admin: pubkey is already present in this list")
	ErrNotAuthorized       = errors.New("admin: pubkey is not present in this list")
	ErrUserAlreadyPaused   = errors.New("admin: user class is already paused")
	ErrUserAlreadyUnpaused = errors.New("admin: user class is not paused")
	ErrInvalidGovernance   = errors.New("admin: new authority must be the configured governance multisig")
)

// UserClassState is a single user class's pause flag, ported field-for-field
// from original_source's UserClass (addr, class) generalised to a named
// class with its own independent pause state (spec.md §4.7's per-class
// withdrawal/borrow pausing, rather than the original's single per-address
// class tag).
type UserClassState struct {
	Class  string
	Paused bool
}

// AuthorizationList is the guard's persisted state, ported field-for-field
// from original_source/programs/liquidity/src/state/state.rs's
// AuthorizationList, with per-class pause flags added.
type AuthorizationList struct {
	Governance  pubkey.Pubkey // GOVERNANCE_MS: the only address authority transfer may hand control to
	AuthUsers   []pubkey.Pubkey
	Guardians   []pubkey.Pubkey
	UserClasses []UserClassState
}

// NewAuthorizationList constructs the list at genesis, seeded with a single
// initial authority/guardian the way
// original_source's AuthorizationList::init does.
func NewAuthorizationList(governance, initialAuthority pubkey.Pubkey) *AuthorizationList {
	return &AuthorizationList{
		Governance: governance,
		AuthUsers:  []pubkey.Pubkey{initialAuthority},
		Guardians:  []pubkey.Pubkey{initialAuthority},
	}
}

func containsKey(list []pubkey.Pubkey, k pubkey.Pubkey) bool {
	for _, v := range list {
		if v.Equal(k) {
			return true
		}
	}
	return false
}

func removeKey(list []pubkey.Pubkey, k pubkey.Pubkey) ([]pubkey.Pubkey, bool) {
	for i, v := range list {
		if v.Equal(k) {
			out := make([]pubkey.Pubkey, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, true
		}
	}
	return list, false
}

// IsAuthUser reports whether k is on the authorization list.
func (a *AuthorizationList) IsAuthUser(k pubkey.Pubkey) bool {
	return containsKey(a.AuthUsers, k)
}

// IsGuardian reports whether k is on the guardian list.
func (a *AuthorizationList) IsGuardian(k pubkey.Pubkey) bool {
	return containsKey(a.Guardians, k)
}

// RequireAuth returns ErrOnlyAuth unless caller is an authorized user.
func (a *AuthorizationList) RequireAuth(caller pubkey.Pubkey) error {
	if !a.IsAuthUser(caller) {
		return ErrOnlyAuth
	}
	return nil
}

// RequireGuardian returns ErrOnlyGuardian unless caller is a guardian.
func (a *AuthorizationList) RequireGuardian(caller pubkey.Pubkey) error {
	if !a.IsGuardian(caller) {
		return ErrOnlyGuardian
	}
	return nil
}

// AddAuthUser adds k to the authorization list, bounded by MaxAuthCount.
func (a *AuthorizationList) AddAuthUser(caller, k pubkey.Pubkey) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	if containsKey(a.AuthUsers, k) {
		return ErrAlreadyAuthorized
	}
	if len(a.AuthUsers) >= MaxAuthCount {
		return ErrAuthListFull
	}
	a.AuthUsers = append(a.AuthUsers, k)
	return nil
}

// RemoveAuthUser removes k from the authorization list.
func (a *AuthorizationList) RemoveAuthUser(caller, k pubkey.Pubkey) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	next, ok := removeKey(a.AuthUsers, k)
	if !ok {
		return ErrNotAuthorized
	}
	a.AuthUsers = next
	return nil
}

// AddGuardian adds k to the guardian list, bounded by MaxAuthCount.
func (a *AuthorizationList) AddGuardian(caller, k pubkey.Pubkey) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	if containsKey(a.Guardians, k) {
		return ErrAlreadyAuthorized
	}
	if len(a.Guardians) >= MaxAuthCount {
		return ErrAuthListFull
	}
	a.Guardians = append(a.Guardians, k)
	return nil
}

// RemoveGuardian removes k from the guardian list.
func (a *AuthorizationList) RemoveGuardian(caller, k pubkey.Pubkey) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	next, ok := removeKey(a.Guardians, k)
	if !ok {
		return ErrNotAuthorized
	}
	a.Guardians = next
	return nil
}

func (a *AuthorizationList) classIndex(class string) int {
	for i, uc := range a.UserClasses {
		if uc.Class == class {
			return i
		}
	}
	return -1
}

// IsPaused implements liquidity.PauseView: a class not yet registered is
// never paused.
func (a *AuthorizationList) IsPaused(class string) bool {
	i := a.classIndex(class)
	if i < 0 {
		return false
	}
	return a.UserClasses[i].Paused
}

// registerClass adds class to UserClasses the first time it's touched,
// bounded by MaxUserClasses.
func (a *AuthorizationList) registerClass(class string) (int, error) {
	if i := a.classIndex(class); i >= 0 {
		return i, nil
	}
	if len(a.UserClasses) >= MaxUserClasses {
		return 0, ErrUserClassListFull
	}
	a.UserClasses = append(a.UserClasses, UserClassState{Class: class})
	return len(a.UserClasses) - 1, nil
}

// Pause pauses class. Both auth users and guardians may pause — spec.md
// §4.7's "guardians can pause but not unpause" asymmetry, mirroring the
// circuit-breaker pattern a multisig-governed protocol wants: any guardian
// can react fast to an incident, only full auth can stand it back down.
func (a *AuthorizationList) Pause(caller pubkey.Pubkey, class string) error {
	if !a.IsAuthUser(caller) && !a.IsGuardian(caller) {
		return ErrOnlyGuardian
	}
	i, err := a.registerClass(class)
	if err != nil {
		return err
	}
	if a.UserClasses[i].Paused {
		return ErrUserAlreadyPaused
	}
	a.UserClasses[i].Paused = true
	return nil
}

// Unpause un-pauses class. Only an authorized user may unpause, never a
// guardian acting alone.
func (a *AuthorizationList) Unpause(caller pubkey.Pubkey, class string) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	i := a.classIndex(class)
	if i < 0 || !a.UserClasses[i].Paused {
		return ErrUserAlreadyUnpaused
	}
	a.UserClasses[i].Paused = false
	return nil
}

// TransferAuthority implements spec.md §4.7's authority transfer: the new
// authority must be the configured governance multisig, matching
// original_source's GOVERNANCE_MS gate — authority can only ever move to
// the one governance-controlled destination, never to an arbitrary key.
func (a *AuthorizationList) TransferAuthority(caller, newAuthority pubkey.Pubkey) error {
	if err := a.RequireAuth(caller); err != nil {
		return err
	}
	if !newAuthority.Equal(a.Governance) {
		return ErrInvalidGovernance
	}
	if !containsKey(a.AuthUsers, newAuthority) {
		if len(a.AuthUsers) >= MaxAuthCount {
			return ErrAuthListFull
		}
		a.AuthUsers = append(a.AuthUsers, newAuthority)
	}
	return nil
}
