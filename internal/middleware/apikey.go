// Package middleware - apikey.go
//
// Implements API-key authentication: a key presented via the X-API-Key
// header or api_key query parameter is SHA-256 hashed and matched
// against a static table built at startup. Each key carries a
// permission set; admin-only routes require the "admin" permission.
// When no keys are configured, every request is treated as holding
// the default {analyze,stream} permission set, so a zero-config
// deployment stays usable.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"github.com/forgesyte/forgesyte/internal/apperrors"
)

const (
	PermissionAnalyze = "analyze"
	PermissionStream  = "stream"
	PermissionAdmin   = "admin"
)

// DefaultPermissions is granted to unauthenticated requests when no keys
// are configured at startup.
var DefaultPermissions = []string{PermissionAnalyze, PermissionStream}

// KeyTable maps a SHA-256 hex digest of a key to its permission set.
type KeyTable map[string][]string

// NewKeyTable builds the startup key table from the admin and user
// pre-shared keys. Either may be empty.
func NewKeyTable(adminKey, userKey string) KeyTable {
	table := KeyTable{}
	if adminKey != "" {
		table[hashKey(adminKey)] = []string{PermissionAnalyze, PermissionStream, PermissionAdmin}
	}
	if userKey != "" {
		table[hashKey(userKey)] = []string{PermissionAnalyze, PermissionStream}
	}
	return table
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

const permissionsContextKey = "forgesyte.permissions"

// Authenticate resolves the caller's permission set from X-API-Key or
// api_key, storing it in the gin context for RequirePermission to read.
// An empty table admits every request with DefaultPermissions. A
// non-empty table rejects missing or unrecognized keys.
func Authenticate(table KeyTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(table) == 0 {
			c.Set(permissionsContextKey, DefaultPermissions)
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}
		if key == "" {
			apperrors.AbortWithError(c, apperrors.Authentication("missing API key"))
			return
		}

		perms, ok := table[hashKey(key)]
		if !ok {
			apperrors.AbortWithError(c, apperrors.Authentication("invalid API key"))
			return
		}

		c.Set(permissionsContextKey, perms)
		c.Next()
	}
}

// Permissions returns the permission set resolved for this request by
// Authenticate, or nil if Authenticate was never run.
func Permissions(c *gin.Context) []string {
	v, ok := c.Get(permissionsContextKey)
	if !ok {
		return nil
	}
	perms, _ := v.([]string)
	return perms
}

// RequirePermission aborts with AuthorizationError unless the caller's
// resolved permission set contains the required permission.
func RequirePermission(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := Permissions(c)
		for _, p := range held {
			if p == required {
				c.Next()
				return
			}
		}
		apperrors.AbortWithError(c, apperrors.Authorization([]string{required}, held))
	}
}
