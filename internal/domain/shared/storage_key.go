package shared

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var storageKeyExtPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// NewStorageKey mints an object storage key under the tenant's prefix.
// Keys have the form <tenant_id>/<uuid>.<ext>
func NewStorageKey(tenantID uuid.UUID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	return fmt.Sprintf("%s/%s.%s", tenantID, uuid.New(), ext)
}

// ParseStorageKey validates a storage key and returns the owning tenant
// and the lower-cased file extension without the dot
func ParseStorageKey(key string) (uuid.UUID, string, error) {
	slash := strings.IndexByte(key, '/')
	if slash < 0 {
		return uuid.Nil, "", NewDomainError("INVALID_DOCUMENT_KEY", "Document key must have the form <tenant_id>/<uuid>.<ext>")
	}

	tenantID, err := uuid.Parse(key[:slash])
	if err != nil {
		return uuid.Nil, "", NewDomainError("INVALID_DOCUMENT_KEY", "Document key does not start with a tenant id")
	}

	rest := key[slash+1:]
	dot := strings.LastIndexByte(rest, '.')
	if dot < 0 {
		return uuid.Nil, "", NewDomainError("INVALID_DOCUMENT_KEY", "Document key is missing a file extension")
	}
	if _, err := uuid.Parse(rest[:dot]); err != nil {
		return uuid.Nil, "", NewDomainError("INVALID_DOCUMENT_KEY", "Document key file name must be a uuid")
	}

	ext := strings.ToLower(rest[dot+1:])
	if !storageKeyExtPattern.MatchString(ext) {
		return uuid.Nil, "", NewDomainError("INVALID_DOCUMENT_KEY", "Document key file extension is malformed")
	}

	return tenantID, ext, nil
}
