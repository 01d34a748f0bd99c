package adapters

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// ResolveRoot returns the absolute, forward-slash root used for rebasing.
// rel, when set, is taken as is if absolute and otherwise joined onto base.
// A root that is still relative is resolved against the working directory.
// An empty result means no rebasing.
func ResolveRoot(base, rel string) string {
	root := toSlash(strings.TrimSpace(base))
	if rel = toSlash(strings.TrimSpace(rel)); rel != "" {
		if path.IsAbs(rel) || strings.HasPrefix(rel, "file://") || root == "" {
			root = rel
		} else {
			root = path.Join(root, rel)
		}
	}
	root = strings.TrimPrefix(root, "file://")
	if root == "" || path.IsAbs(root) {
		return root
	}
	abs, err := filepath.Abs(filepath.FromSlash(root))
	if err != nil {
		return root
	}
	return toSlash(abs)
}

// RebasePath rewrites a tool-reported file path to the repository-relative,
// forward-slash form used for identity. It strips a file:// scheme, makes
// absolute paths under root relative to it and removes leading "./". Paths
// outside root are returned cleaned but otherwise untouched.
func RebasePath(root, p string) string {
	p = toSlash(strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "file://")
	if p == "" {
		return ""
	}

	root = toSlash(strings.TrimSpace(root))
	root = strings.TrimPrefix(root, "file://")
	if root != "" && path.IsAbs(root) && path.IsAbs(p) {
		cleanRoot := path.Clean(root)
		cleanPath := path.Clean(p)
		switch {
		case cleanPath == cleanRoot:
			return ""
		case cleanRoot == "/":
			p = strings.TrimPrefix(cleanPath, "/")
		case strings.HasPrefix(cleanPath, cleanRoot+"/"):
			p = strings.TrimPrefix(cleanPath, cleanRoot+"/")
		}
	}

	p = path.Clean(p)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "." {
		return ""
	}
	return p
}

// uriToPath decodes a SARIF artifact URI. Percent-escapes are resolved; an
// undecodable URI is used verbatim.
func uriToPath(root, uri string) string {
	if decoded, err := url.PathUnescape(uri); err == nil {
		uri = decoded
	}
	return RebasePath(root, uri)
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
