// internal/middleware/license_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"

	"almudeer-service/internal/domain/license"
	xerrors "almudeer-service/internal/pkg/errors"
	"almudeer-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	licenseHeader       = "X-License-Key"
	msgLicenseRequired  = "مفتاح الاشتراك مطلوب"
	msgLicenseInvalid   = "مفتاح الاشتراك غير صالح"
	msgLicenseLookupErr = "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى"
)

// LicenseResolver resolves a raw license key to a license record.
type LicenseResolver interface {
	FindByKey(ctx context.Context, key string) (*license.License, error)
}

type LicenseMiddleware struct {
	licenses LicenseResolver
	logger   *zap.Logger
}

func NewLicenseMiddleware(licenses LicenseResolver, logger *zap.Logger) *LicenseMiddleware {
	return &LicenseMiddleware{licenses: licenses, logger: logger}
}

// Require validates the X-License-Key header and stores the license id in
// the request context. All phone-session routes run behind it.
func (m *LicenseMiddleware) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(licenseHeader)
		if key == "" {
			response.Unauthorized(c, msgLicenseRequired)
			return
		}

		l, err := m.licenses.FindByKey(c.Request.Context(), key)
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Unauthorized(c, msgLicenseInvalid)
			return
		}
		if err != nil {
			m.logger.Error("license lookup failed", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, msgLicenseLookupErr)
			return
		}
		if !l.IsActive {
			response.Unauthorized(c, msgLicenseInvalid)
			return
		}

		c.Set("license_id", l.ID)
		c.Next()
	}
}
