// File: internal/taxonomy/cwe.go
package taxonomy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// CWEEntry describes a weakness the catalog knows how to categorize.
type CWEEntry struct {
	ID       string
	Name     string
	Category schemas.Category
}

// cweCatalog is shared by every adapter so that tools tagging the same CWE
// land in the same category.
var cweCatalog = map[string]CWEEntry{
	"CWE-79":   {ID: "CWE-79", Name: "Cross-site Scripting", Category: schemas.CategoryXSS},
	"CWE-80":   {ID: "CWE-80", Name: "Basic XSS", Category: schemas.CategoryXSS},
	"CWE-89":   {ID: "CWE-89", Name: "SQL Injection", Category: schemas.CategorySQLInjection},
	"CWE-564":  {ID: "CWE-564", Name: "SQL Injection: Hibernate", Category: schemas.CategorySQLInjection},
	"CWE-77":   {ID: "CWE-77", Name: "Command Injection", Category: schemas.CategoryCommandInjection},
	"CWE-78":   {ID: "CWE-78", Name: "OS Command Injection", Category: schemas.CategoryCommandInjection},
	"CWE-22":   {ID: "CWE-22", Name: "Path Traversal", Category: schemas.CategoryPathTraversal},
	"CWE-23":   {ID: "CWE-23", Name: "Relative Path Traversal", Category: schemas.CategoryPathTraversal},
	"CWE-36":   {ID: "CWE-36", Name: "Absolute Path Traversal", Category: schemas.CategoryPathTraversal},
	"CWE-918":  {ID: "CWE-918", Name: "Server-Side Request Forgery", Category: schemas.CategorySSRF},
	"CWE-352":  {ID: "CWE-352", Name: "Cross-Site Request Forgery", Category: schemas.CategoryCSRF},
	"CWE-798":  {ID: "CWE-798", Name: "Use of Hard-coded Credentials", Category: schemas.CategoryHardcodedCredentials},
	"CWE-259":  {ID: "CWE-259", Name: "Use of Hard-coded Password", Category: schemas.CategoryHardcodedCredentials},
	"CWE-321":  {ID: "CWE-321", Name: "Use of Hard-coded Cryptographic Key", Category: schemas.CategoryHardcodedCredentials},
	"CWE-502":  {ID: "CWE-502", Name: "Deserialization of Untrusted Data", Category: schemas.CategoryInsecureDeserialization},
	"CWE-326":  {ID: "CWE-326", Name: "Inadequate Encryption Strength", Category: schemas.CategoryCryptography},
	"CWE-327":  {ID: "CWE-327", Name: "Use of a Broken or Risky Cryptographic Algorithm", Category: schemas.CategoryCryptography},
	"CWE-328":  {ID: "CWE-328", Name: "Use of Weak Hash", Category: schemas.CategoryCryptography},
	"CWE-330":  {ID: "CWE-330", Name: "Use of Insufficiently Random Values", Category: schemas.CategoryCryptography},
	"CWE-338":  {ID: "CWE-338", Name: "Use of Cryptographically Weak PRNG", Category: schemas.CategoryCryptography},
	"CWE-916":  {ID: "CWE-916", Name: "Password Hash With Insufficient Computational Effort", Category: schemas.CategoryCryptography},
	"CWE-285":  {ID: "CWE-285", Name: "Improper Authorization", Category: schemas.CategoryAuthFlaws},
	"CWE-287":  {ID: "CWE-287", Name: "Improper Authentication", Category: schemas.CategoryAuthFlaws},
	"CWE-306":  {ID: "CWE-306", Name: "Missing Authentication for Critical Function", Category: schemas.CategoryAuthFlaws},
	"CWE-862":  {ID: "CWE-862", Name: "Missing Authorization", Category: schemas.CategoryAuthFlaws},
	"CWE-863":  {ID: "CWE-863", Name: "Incorrect Authorization", Category: schemas.CategoryAuthFlaws},
	"CWE-384":  {ID: "CWE-384", Name: "Session Fixation", Category: schemas.CategorySessionManagement},
	"CWE-613":  {ID: "CWE-613", Name: "Insufficient Session Expiration", Category: schemas.CategorySessionManagement},
	"CWE-614":  {ID: "CWE-614", Name: "Sensitive Cookie Without 'Secure' Attribute", Category: schemas.CategorySessionManagement},
	"CWE-1004": {ID: "CWE-1004", Name: "Sensitive Cookie Without 'HttpOnly' Flag", Category: schemas.CategorySessionManagement},
	"CWE-601":  {ID: "CWE-601", Name: "Open Redirect", Category: schemas.CategoryOpenRedirect},
	"CWE-1333": {ID: "CWE-1333", Name: "Inefficient Regular Expression Complexity", Category: schemas.CategoryReDoS},
}

var cweNumber = regexp.MustCompile(`(?i)cwe[-_/ ]?0*(\d+)`)

// NormalizeCWE canonicalizes the many spellings tools use ("79", "CWE-079",
// "CWE-79: Improper ...", "external/cwe/cwe-079") to "CWE-79". The boolean is
// false when no CWE number can be found.
func NormalizeCWE(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return "CWE-" + strconv.Itoa(n), true
	}
	m := cweNumber.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return "", false
	}
	return "CWE-" + strconv.Itoa(n), true
}

// NormalizeCWEs canonicalizes and de-duplicates a list, keeping first-seen order.
func NormalizeCWEs(raw []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		id, ok := NormalizeCWE(r)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LookupCWE returns the catalog entry for a CWE in any accepted spelling.
func LookupCWE(raw string) (CWEEntry, bool) {
	id, ok := NormalizeCWE(raw)
	if !ok {
		return CWEEntry{}, false
	}
	entry, ok := cweCatalog[id]
	return entry, ok
}

// CategoryForCWEs returns the category of the first catalogued CWE in ids,
// or "" when none is known. The empty result lets the keyword classifier run.
func CategoryForCWEs(ids []string) schemas.Category {
	for _, id := range ids {
		if entry, ok := LookupCWE(id); ok {
			return entry.Category
		}
	}
	return ""
}

// CategoryForCWE returns the category for a single CWE, "" when uncatalogued.
func CategoryForCWE(raw string) schemas.Category {
	return CategoryForCWEs([]string{raw})
}
