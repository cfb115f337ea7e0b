package paths

import (
	"fmt"
	"path"
	"strings"
)

// Uri is a site-absolute URI string: it always begins with "/". There is no
// way to construct one that doesn't.
type Uri struct {
	p string
}

// NewUri validates and wraps s.
func NewUri(s string) (Uri, error) {
	if !strings.HasPrefix(s, "/") {
		return Uri{}, fmt.Errorf("paths: uri %q must start with /", s)
	}
	return Uri{p: s}, nil
}

// MustUri panics if s doesn't start with "/".
func MustUri(s string) Uri {
	u, err := NewUri(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Uri) String() string { return u.p }

// Dir returns the URI of the containing directory, always ending in "/".
func (u Uri) Dir() Uri {
	d := path.Dir(u.p)
	if !strings.HasSuffix(d, "/") {
		d += "/"
	}
	return Uri{p: d}
}

// Join appends a relative segment to the URI's directory.
func (u Uri) Join(rel string) Uri {
	return Uri{p: path.Join(u.Dir().p, rel)}
}

// CheckedUri pairs a Uri with the confirmed HTML file that contains or emits
// it, which is what relative-asset resolution needs: the page's own target
// path tells us what "relative to this page" means on disk.
type CheckedUri struct {
	Uri       Uri
	Container ConfirmedPath[HtmlFile]
}

// AssetUri is a CheckedUri known to refer to an asset target rather than a
// page.
type AssetUri struct {
	CheckedUri
}
