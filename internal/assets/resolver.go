// Package assets qualifies product image references for display.
package assets

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolver turns an image reference into a displayable URL. Resolution is
// pure and idempotent: an already-absolute URL or data URI comes back
// byte-identical.
type Resolver struct {
	base string
}

// New builds a Resolver rooted at the backend's static-asset origin.
func New(base string) Resolver {
	return Resolver{base: strings.TrimRight(base, "/")}
}

// Resolve maps ref to a URL. An empty ref yields a deterministic placeholder
// keyed by id, so the same product always shows the same stand-in image.
func (r Resolver) Resolve(ref, id string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Sprintf("https://picsum.photos/seed/%s/400/300", url.PathEscape(id))
	}
	if strings.HasPrefix(ref, "data:") || isAbsolute(ref) {
		return ref
	}
	return r.base + "/" + strings.TrimLeft(ref, "/")
}

func isAbsolute(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != "" && u.Host != ""
}
