package gov

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AccessList manages role membership and the pause switch. It is the policy
// component consulted by every mutating engine operation; the engine passes
// the caller's identity in explicitly rather than relying on ambient state.
type AccessList struct {
	mu        sync.RWMutex
	admins    map[common.Address]bool
	guardians map[common.Address]bool
	paused    bool
}

// NewAccessList creates an access list with an initial admin. The system is
// never left without an admin, so one must exist from the start.
func NewAccessList(admin common.Address) *AccessList {
	return &AccessList{
		admins:    map[common.Address]bool{admin: true},
		guardians: make(map[common.Address]bool),
	}
}

// HasRole checks whether an address holds a role.
func (a *AccessList) HasRole(role Role, addr common.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch role {
	case RoleAdmin:
		return a.admins[addr]
	case RoleGuardian:
		return a.guardians[addr]
	default:
		return false
	}
}

// Grant grants a role to an address.
func (a *AccessList) Grant(role Role, addr common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch role {
	case RoleAdmin:
		a.admins[addr] = true
	case RoleGuardian:
		a.guardians[addr] = true
	default:
		return ErrNotAuthorized
	}
	return nil
}

// Revoke revokes a role from an address. Revoking the admin role from the
// last remaining admin is rejected.
func (a *AccessList) Revoke(role Role, addr common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch role {
	case RoleAdmin:
		if a.admins[addr] && len(a.admins) == 1 {
			return ErrLastAdmin
		}
		delete(a.admins, addr)
	case RoleGuardian:
		delete(a.guardians, addr)
	default:
		return ErrNotAuthorized
	}
	return nil
}

// Members returns the addresses holding a role.
func (a *AccessList) Members(role Role) []common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var src map[common.Address]bool
	switch role {
	case RoleAdmin:
		src = a.admins
	case RoleGuardian:
		src = a.guardians
	default:
		return nil
	}

	members := make([]common.Address, 0, len(src))
	for addr := range src {
		members = append(members, addr)
	}
	return members
}

// Paused reports whether the system is paused.
func (a *AccessList) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

func (a *AccessList) setPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
}
