package access

import "testing"

var (
	anonymous  = Viewer{}
	subscriber = Viewer{UserID: "u-1", Roles: []string{"subscriber"}}
	customer   = Viewer{UserID: "u-2", Roles: []string{"customer", "subscriber"}}
	editor     = Viewer{UserID: "u-3", Roles: []string{"editor"}}
)

func enabledPolicy(mode Mode, roles ...string) Policy {
	return Policy{Enabled: true, Mode: mode, Roles: roles, ManagerRoles: []string{"administrator", "editor"}}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		item    Item
		viewer  Viewer
		allowed bool
		reason  string
	}{
		{
			name:    "inline player always allowed",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 0},
			viewer:  anonymous,
			allowed: true,
			reason:  ReasonInline,
		},
		{
			name:    "manager bypasses restriction",
			policy:  enabledPolicy(ModeLoggedOutOnly),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  editor,
			allowed: true,
			reason:  ReasonManager,
		},
		{
			name:    "author bypasses restriction",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 7, AuthorID: "u-1", Mode: ModeGlobal},
			viewer:  subscriber,
			allowed: true,
			reason:  ReasonAuthor,
		},
		{
			name:    "restrictions disabled",
			policy:  Policy{Mode: ModeLoggedInWithRoles, Roles: []string{"customer"}},
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  anonymous,
			allowed: true,
			reason:  ReasonDisabled,
		},
		{
			name:    "logged out only denies members",
			policy:  enabledPolicy(ModeLoggedOutOnly),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  subscriber,
			allowed: false,
			reason:  ReasonNotLoggedOut,
		},
		{
			name:    "logged out only allows anonymous",
			policy:  enabledPolicy(ModeLoggedOutOnly),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  anonymous,
			allowed: true,
			reason:  ReasonLoggedOut,
		},
		{
			name:    "logged in required",
			policy:  enabledPolicy(ModeLoggedInWithRoles),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  anonymous,
			allowed: false,
			reason:  ReasonNotLoggedIn,
		},
		{
			name:    "empty role set admits any member",
			policy:  enabledPolicy(ModeLoggedInWithRoles),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  subscriber,
			allowed: true,
			reason:  ReasonLoggedIn,
		},
		{
			name:    "non matching role denied",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  subscriber,
			allowed: false,
			reason:  ReasonRoleMismatch,
		},
		{
			name:    "matching role allowed",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  customer,
			allowed: true,
			reason:  ReasonRoleMatch,
		},
		{
			name:    "item override replaces global mode",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 7, Mode: ModeEveryone},
			viewer:  anonymous,
			allowed: true,
			reason:  ReasonEveryone,
		},
		{
			name:    "item roles replace global roles",
			policy:  enabledPolicy(ModeLoggedInWithRoles, "customer"),
			item:    Item{ID: 7, Mode: ModeLoggedInWithRoles, Roles: []string{"subscriber"}},
			viewer:  subscriber,
			allowed: true,
			reason:  ReasonRoleMatch,
		},
		{
			name:    "item override without roles keeps global roles",
			policy:  enabledPolicy(ModeEveryone, "customer"),
			item:    Item{ID: 7, Mode: ModeLoggedInWithRoles},
			viewer:  subscriber,
			allowed: false,
			reason:  ReasonRoleMismatch,
		},
		{
			name:    "blank global roles admit any member",
			policy:  enabledPolicy(ModeLoggedInWithRoles, ""),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  subscriber,
			allowed: true,
			reason:  ReasonLoggedIn,
		},
		{
			name:    "blank item roles keep global roles",
			policy:  enabledPolicy(ModeEveryone, "customer"),
			item:    Item{ID: 7, Mode: ModeLoggedInWithRoles, Roles: []string{"", ""}},
			viewer:  customer,
			allowed: true,
			reason:  ReasonRoleMatch,
		},
		{
			name:    "unknown mode denied",
			policy:  enabledPolicy(Mode(5)),
			item:    Item{ID: 7, Mode: ModeGlobal},
			viewer:  customer,
			allowed: false,
			reason:  ReasonUnknownMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.policy, tt.item, tt.viewer)
			if got.Allowed != tt.allowed {
				t.Fatalf("expected allowed=%v got %+v", tt.allowed, got)
			}
			if got.Reason != tt.reason {
				t.Fatalf("expected reason %q got %q", tt.reason, got.Reason)
			}
		})
	}
}

func TestEvaluateEveryoneNeverDenies(t *testing.T) {
	viewers := []Viewer{anonymous, subscriber, customer, editor, {UserID: "u-9"}}
	policies := []Policy{
		enabledPolicy(ModeEveryone),
		enabledPolicy(ModeLoggedOutOnly, "customer"),
		enabledPolicy(ModeLoggedInWithRoles, "customer"),
		{Mode: ModeLoggedInWithRoles},
	}

	for _, policy := range policies {
		for _, viewer := range viewers {
			for _, id := range []int64{0, 1, 42} {
				item := Item{ID: id, Mode: ModeEveryone, Roles: []string{"nobody"}}
				if d := Evaluate(policy, item, viewer); !d.Allowed {
					t.Fatalf("everyone item denied: policy=%+v viewer=%+v decision=%+v", policy, viewer, d)
				}
			}
		}
	}
}

func TestEffectiveDropsBlankRoles(t *testing.T) {
	mode, roles := Effective(enabledPolicy(ModeLoggedInWithRoles, "", "customer", ""), Item{ID: 7, Mode: ModeGlobal})
	if mode != ModeLoggedInWithRoles {
		t.Fatalf("unexpected mode %v", mode)
	}
	if len(roles) != 1 || roles[0] != "customer" {
		t.Fatalf("unexpected roles %q", roles)
	}
}

func TestCanReadUnpublished(t *testing.T) {
	policy := enabledPolicy(ModeEveryone)
	item := Item{ID: 7, AuthorID: "u-1"}

	tests := []struct {
		name   string
		policy Policy
		viewer Viewer
		want   bool
	}{
		{name: "anonymous", policy: policy, viewer: anonymous, want: false},
		{name: "author", policy: policy, viewer: subscriber, want: true},
		{name: "manager", policy: policy, viewer: editor, want: true},
		{name: "other member", policy: policy, viewer: customer, want: false},
		{name: "blank manager roles", policy: Policy{ManagerRoles: []string{""}}, viewer: Viewer{UserID: "u-8", Roles: []string{""}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReadUnpublished(tt.policy, item, tt.viewer); got != tt.want {
				t.Fatalf("CanReadUnpublished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRestricted(t *testing.T) {
	policy := enabledPolicy(ModeEveryone)
	if Restricted(policy, Item{ID: 1, Mode: ModeGlobal}) {
		t.Fatal("everyone should not be restricted")
	}
	if !Restricted(policy, Item{ID: 1, Mode: ModeLoggedInWithRoles}) {
		t.Fatal("logged-in override should be restricted")
	}
	if Restricted(Policy{Mode: ModeLoggedInWithRoles}, Item{ID: 1, Mode: ModeGlobal}) {
		t.Fatal("disabled restrictions should not flag items")
	}
}

func TestModeString(t *testing.T) {
	if ModeLoggedInWithRoles.String() != "logged_in" || Mode(9).String() != "unknown" {
		t.Fatal("unexpected mode names")
	}
	if Mode(9).Valid() || !ModeGlobal.Valid() {
		t.Fatal("unexpected validity")
	}
}
