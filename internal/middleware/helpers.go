// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetLicenseID gets the resolved license id from context.
func GetLicenseID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("license_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustGetLicenseID gets the license id from context or panics.
// Only valid behind LicenseMiddleware.Require.
func MustGetLicenseID(c *gin.Context) int64 {
	id, ok := GetLicenseID(c)
	if !ok {
		panic("license_id not found in context")
	}
	return id
}
