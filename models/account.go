package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleBuyer, RoleSeller:
		return Role(s), true
	}
	return "", false
}

type MembershipPlan string

const (
	PlanBasic    MembershipPlan = "basic"
	PlanStandard MembershipPlan = "standard"
	PlanPremium  MembershipPlan = "premium"
)

func (p MembershipPlan) Valid() bool {
	switch p {
	case PlanBasic, PlanStandard, PlanPremium:
		return true
	}
	return false
}

// Account is a buyer or seller identity. Password holds the bcrypt hash and
// is never serialized.
type Account struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Role           Role               `json:"role" bson:"role"`
	FirstName      string             `json:"firstName" bson:"firstName"`
	LastName       string             `json:"lastName" bson:"lastName"`
	Email          string             `json:"email" bson:"email"`
	Phone          string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Password       string             `json:"-" bson:"password,omitempty"`
	GoogleID       string             `json:"googleId,omitempty" bson:"googleId,omitempty"`
	IsMember       bool               `json:"isMember" bson:"isMember"`
	MembershipPlan MembershipPlan     `json:"membershipPlan,omitempty" bson:"membershipPlan,omitempty"`
	Terms          bool               `json:"terms" bson:"terms"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (a *Account) HasCredential() bool { return a.Password != "" }

func (a *Account) HasMembership() bool { return a.IsMember && a.MembershipPlan != "" }

// Profile is the user supplied part of an account.
type Profile struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
}

type RegisterRequest struct {
	Profile
	Password string `json:"password" validate:"required,min=6"`
	Terms    bool   `json:"terms"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateAccountRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"`
}

// AdminCredential is one entry of the configured administrator allow-list.
type AdminCredential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
