package auth

import (
	"net/http"

	"github.com/user/foodgram-go/apperror"
)

var (
	// ErrNotAuthenticated is returned to anonymous callers of authenticated-only actions.
	ErrNotAuthenticated = apperror.Coded(apperror.AuthError, "not_authenticated", "", "authentication credentials were not provided")
	// ErrStaffOnly is returned when a non-staff caller tries to modify catalog data.
	ErrStaffOnly = apperror.Coded(apperror.UnauthorizedError, "staff_only", "", "only staff members may modify this resource")
	// ErrNotAuthor is returned when a caller modifies a recipe they did not write.
	ErrNotAuthor = apperror.Coded(apperror.UnauthorizedError, "not_author", "", "only the author may modify this recipe")
)

// IsSafeMethod reports whether method only reads (GET, HEAD, OPTIONS).
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// StaffOrReadOnly allows reads to everyone and writes to staff only.
// Anonymous writers get 401, authenticated non-staff writers get 403.
func StaffOrReadOnly(method string, p *Principal) error {
	if IsSafeMethod(method) {
		return nil
	}
	if p == nil {
		return ErrNotAuthenticated
	}
	if !p.IsStaff {
		return ErrStaffOnly
	}
	return nil
}

// AuthenticatedOrReadOnly is the request-level half of the author policy: any
// authenticated caller may attempt a write, ownership is checked per object.
func AuthenticatedOrReadOnly(method string, p *Principal) error {
	if IsSafeMethod(method) || p != nil {
		return nil
	}
	return ErrNotAuthenticated
}

// AuthorOrReadOnly is the object-level half of the author policy. authorID is nil when
// the recipe's author account is gone, in which case nobody may modify it.
func AuthorOrReadOnly(method string, p *Principal, authorID *int64) error {
	if err := AuthenticatedOrReadOnly(method, p); err != nil {
		return err
	}
	if IsSafeMethod(method) {
		return nil
	}
	if authorID == nil || *authorID != p.UserID {
		return ErrNotAuthor
	}
	return nil
}
