// Package access decides whether a viewer may watch a video.
package access

import (
	"github.com/samber/lo"
)

// Mode is the visibility rule applied to a video.
type Mode int

const (
	ModeGlobal            Mode = -1
	ModeEveryone          Mode = 0
	ModeLoggedOutOnly     Mode = 1
	ModeLoggedInWithRoles Mode = 2
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= ModeGlobal && m <= ModeLoggedInWithRoles
}

func (m Mode) String() string {
	switch m {
	case ModeGlobal:
		return "global"
	case ModeEveryone:
		return "everyone"
	case ModeLoggedOutOnly:
		return "logged_out"
	case ModeLoggedInWithRoles:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Policy is the site-wide restriction configuration.
type Policy struct {
	Enabled      bool
	Mode         Mode
	Roles        []string
	ManagerRoles []string
}

// Item carries the per-video restriction metadata. ID 0 denotes an inline player.
type Item struct {
	ID       int64
	AuthorID string
	Mode     Mode
	Roles    []string
}

// Viewer is the identity of the person requesting playback. A zero Viewer is anonymous.
type Viewer struct {
	UserID string
	Roles  []string
}

// LoggedIn reports whether the viewer is authenticated.
func (v Viewer) LoggedIn() bool {
	return v.UserID != ""
}

// Reasons attached to decisions.
const (
	ReasonInline       = "inline"
	ReasonManager      = "manager"
	ReasonAuthor       = "author"
	ReasonDisabled     = "restrictions_disabled"
	ReasonEveryone     = "everyone"
	ReasonLoggedOut    = "logged_out"
	ReasonLoggedIn     = "logged_in"
	ReasonRoleMatch    = "role_match"
	ReasonNotLoggedOut = "requires_logged_out"
	ReasonNotLoggedIn  = "requires_login"
	ReasonRoleMismatch = "role_mismatch"
	ReasonUnknownMode  = "unknown_mode"
)

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Evaluate applies policy and the item's override to viewer. Anything not
// explicitly granted is denied.
func Evaluate(policy Policy, item Item, viewer Viewer) Decision {
	if item.ID == 0 {
		return allow(ReasonInline)
	}

	if reason, ok := privileged(policy, item, viewer); ok {
		return allow(reason)
	}

	if !policy.Enabled {
		return allow(ReasonDisabled)
	}

	mode, roles := Effective(policy, item)

	switch mode {
	case ModeEveryone:
		return allow(ReasonEveryone)
	case ModeLoggedOutOnly:
		if viewer.LoggedIn() {
			return deny(ReasonNotLoggedOut)
		}
		return allow(ReasonLoggedOut)
	case ModeLoggedInWithRoles:
		if !viewer.LoggedIn() {
			return deny(ReasonNotLoggedIn)
		}
		if len(roles) == 0 {
			return allow(ReasonLoggedIn)
		}
		if lo.Some(viewer.Roles, roles) {
			return allow(ReasonRoleMatch)
		}
		return deny(ReasonRoleMismatch)
	}

	return deny(ReasonUnknownMode)
}

// privileged reports whether viewer manages videos or authored item.
func privileged(policy Policy, item Item, viewer Viewer) (string, bool) {
	if !viewer.LoggedIn() {
		return "", false
	}
	if lo.Some(viewer.Roles, lo.Compact(policy.ManagerRoles)) {
		return ReasonManager, true
	}
	if item.AuthorID != "" && item.AuthorID == viewer.UserID {
		return ReasonAuthor, true
	}
	return "", false
}

// CanReadUnpublished reports whether viewer may see item while it is not
// published: only its author and managers can.
func CanReadUnpublished(policy Policy, item Item, viewer Viewer) bool {
	_, ok := privileged(policy, item, viewer)
	return ok
}

// Effective returns the mode and role set that apply to item. Blank role
// names are dropped, so a set holding only blanks counts as empty.
func Effective(policy Policy, item Item) (Mode, []string) {
	mode, roles := policy.Mode, lo.Compact(policy.Roles)
	if item.Mode != ModeGlobal {
		mode = item.Mode
		if override := lo.Compact(item.Roles); item.Mode == ModeLoggedInWithRoles && len(override) > 0 {
			roles = override
		}
	}
	return mode, roles
}

// Restricted reports whether item is subject to any visibility rule other
// than everyone. Used to flag titles in listings.
func Restricted(policy Policy, item Item) bool {
	if !policy.Enabled || item.ID == 0 {
		return false
	}
	mode, _ := Effective(policy, item)
	return mode == ModeLoggedOutOnly || mode == ModeLoggedInWithRoles
}
