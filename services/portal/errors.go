package portal

import (
	"context"
	"errors"
)

var (
	// ErrMissingCredentials means the portal user or password is not configured
	ErrMissingCredentials = errors.New("portal credentials are not configured")
	// ErrLoginTimeout means the login form or the post-login redirect never showed up
	ErrLoginTimeout = errors.New("portal login did not complete in time")
	// ErrPortalLayout means an expected control never became interactive
	ErrPortalLayout = errors.New("expected portal control was not found")
	// ErrNotAuthenticated means an operation needs a logged-in session and there is none
	ErrNotAuthenticated = errors.New("no authenticated portal session")
)

// FailureKind groups errors by the remediation they need
type FailureKind string

const (
	FailureConfiguration  FailureKind = "configuration"
	FailureAuthentication FailureKind = "authentication"
	FailureLayout         FailureKind = "portal_layout"
	FailureUnknown        FailureKind = "unknown"
)

// Classify maps an error returned by this package to its failure kind
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return FailureConfiguration
	case errors.Is(err, ErrLoginTimeout), errors.Is(err, ErrNotAuthenticated):
		return FailureAuthentication
	case errors.Is(err, ErrPortalLayout):
		return FailureLayout
	default:
		return FailureUnknown
	}
}

// OperatorMessage returns the message shown to whoever has to act on the failure
func OperatorMessage(err error) string {
	switch Classify(err) {
	case "":
		return ""
	case FailureConfiguration:
		return "Error: credenciales del portal no configuradas (PJ_USER / PJ_PASS)."
	case FailureAuthentication:
		if errors.Is(err, ErrNotAuthenticated) {
			return "No hay una sesión activa en el portal. Sincronice primero para iniciar sesión."
		}
		return "No se pudo iniciar sesión. Verifica tus credenciales."
	case FailureLayout:
		return "Error al sincronizar: No se encontró el selector de paginación. Es posible que el portal haya cambiado."
	default:
		return "Error inesperado al comunicarse con el portal: " + err.Error()
	}
}

// isTimeout reports whether err came from a bounded wait running out
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
