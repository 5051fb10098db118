package models

import "time"

// Role decides which half of the marketplace an account acts on.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleRestaurant Role = "RESTAURANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleRestaurant
}

// OTPPurpose tells which one-time code slot of an account is addressed.
type OTPPurpose string

const (
	OTPPurposeVerify OTPPurpose = "VERIFY"
	OTPPurposeReset  OTPPurpose = "RESET"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeVerify || p == OTPPurposeReset
}

// User is an account of either role. The role is the profile discriminator:
// a CUSTOMER account owns carts, orders and addresses, a RESTAURANT account
// owns food items and receives orders.
type User struct {
	ID                    string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name                  string     `json:"name" gorm:"type:varchar(100)"`
	Email                 string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Phone                 string     `json:"phone" gorm:"type:varchar(32)"`
	DateOfBirth           *time.Time `json:"dateOfBirth,omitempty"`
	PasswordHash          string     `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`
	Role                  Role       `json:"role" gorm:"type:varchar(20);not null"`
	Verified              bool       `json:"verified" gorm:"not null"`
	VerificationOTP       *string    `json:"-" gorm:"column:verification_otp;type:varchar(6)"`
	VerificationOTPExpiry *time.Time `json:"-" gorm:"column:verification_otp_expiry"`
	ResetOTP              *string    `json:"-" gorm:"column:reset_otp;type:varchar(6)"`
	ResetOTPExpiry        *time.Time `json:"-" gorm:"column:reset_otp_expiry"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// OTPSlot returns the stored code and expiry for the given purpose.
func (u *User) OTPSlot(purpose OTPPurpose) (*string, *time.Time) {
	if purpose == OTPPurposeReset {
		return u.ResetOTP, u.ResetOTPExpiry
	}
	return u.VerificationOTP, u.VerificationOTPExpiry
}

// OTPColumns returns the column names backing the code and expiry of purpose.
func OTPColumns(purpose OTPPurpose) (code, expiry string) {
	if purpose == OTPPurposeReset {
		return "reset_otp", "reset_otp_expiry"
	}
	return "verification_otp", "verification_otp_expiry"
}
