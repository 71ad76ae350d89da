package user

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never return
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	KYCStatus string    `json:"kyc_status"`
	CreatedAt time.Time `json:"created_at"`
}

// KYC statuses
const (
	KYCUnverified = "unverified"
	KYCPending    = "pending"
	KYCVerified   = "verified"
	KYCRejected   = "rejected"
)

// ValidKYCStatus reports whether s is one of the known statuses.
func ValidKYCStatus(s string) bool {
	switch s {
	case KYCUnverified, KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}
