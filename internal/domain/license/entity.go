package license

import "time"

// License is the tenant/business account under which a phone integration
// is configured.
type License struct {
	ID           int64
	LicenseKey   string
	BusinessName string
	IsActive     bool
	CreatedAt    time.Time
}
