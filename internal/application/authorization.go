package application

// RequireAuthenticated fails with ErrUnauthenticated unless the principal was
// resolved from a session.
func RequireAuthenticated(principal Principal) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireRole fails with ErrForbidden unless the principal holds role. Admin
// satisfies every role.
func RequireRole(principal Principal, role Role) error {
	if err := RequireAuthenticated(principal); err != nil {
		return err
	}
	if principal.Role == role || principal.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// RequireOwnerOrAdmin fails with ErrForbidden unless the principal owns the
// resource or is an administrator.
func RequireOwnerOrAdmin(principal Principal, ownerID int64) error {
	if err := RequireAuthenticated(principal); err != nil {
		return err
	}
	if principal.UserID == ownerID || principal.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
