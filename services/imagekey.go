package services

// ImageDecision says how to answer an image request addressed by a
// possibly non-canonical identifier.
type ImageDecision struct {
	Redirect bool
	// Canonical is the identifier to serve under. When Redirect is set
	// the handler issues a 301 to the canonical URL instead of serving.
	Canonical string
}

// ResolveImageIdentifier decides between serving directly and redirecting
// to the canonical external-identifier URL. The equality check is load
// bearing: when the external identifier string equals the requested one,
// redirecting would loop forever, so the request is served in place.
// Records without an external identifier are always served in place under
// the requested identifier.
func ResolveImageIdentifier(requested, canonical string) ImageDecision {
	if canonical == "" || canonical == requested {
		return ImageDecision{Redirect: false, Canonical: requested}
	}
	return ImageDecision{Redirect: true, Canonical: canonical}
}
