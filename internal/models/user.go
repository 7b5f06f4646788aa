package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	CustomerB2C = "B2C"
	CustomerB2B = "B2B"

	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Address is an embedded entry of a user. At most one entry of a user has
// IsDefault set.
type Address struct {
	ID         string `bson:"id" json:"id"`
	Label      string `bson:"label" json:"label"`
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
	IsDefault  bool   `bson:"isDefault" json:"isDefault"`
}

// BusinessDetails is collected from B2B customers at registration.
type BusinessDetails struct {
	BusinessType  string `bson:"businessType,omitempty" json:"businessType,omitempty"`
	GSTNumber     string `bson:"gstNumber,omitempty" json:"gstNumber,omitempty"`
	ContactPerson string `bson:"contactPerson,omitempty" json:"contactPerson,omitempty"`
	Website       string `bson:"website,omitempty" json:"website,omitempty"`
}

// User is a customer or admin account. Version advances on every write and
// guards the address book against lost updates.
type User struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name            string              `bson:"name" json:"name"`
	Email           string              `bson:"email" json:"email"`
	Phone           string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Company         string              `bson:"company,omitempty" json:"company,omitempty"`
	PasswordHash    string              `bson:"passwordHash" json:"-"`
	Role            string              `bson:"role" json:"role"`
	CustomerType    string              `bson:"customerType,omitempty" json:"customerType"`
	Business        *BusinessDetails    `bson:"businessDetails,omitempty" json:"businessDetails,omitempty"`
	ApprovalStatus  string              `bson:"approvalStatus,omitempty" json:"approvalStatus"`
	ApprovedBy      *primitive.ObjectID `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time          `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	RejectedBy      *primitive.ObjectID `bson:"rejectedBy,omitempty" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time          `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectionReason string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	Addresses       []Address           `bson:"addresses" json:"addresses"`
	Version         int64               `bson:"version" json:"-"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsB2B reports a business account. Accounts stored before customer types
// existed count as B2C.
func (u User) IsB2B() bool {
	return u.CustomerType == CustomerB2B
}

// Approved reports whether the account may use business features. Only B2B
// accounts go through approval.
func (u User) Approved() bool {
	return u.ApprovalStatus == "" || u.ApprovalStatus == ApprovalApproved
}

// DisplayName prefers the company for business accounts.
func (u User) DisplayName() string {
	if u.Company != "" {
		return u.Company
	}
	return u.Name
}

type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone,omitempty"`
}

func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID primitive.ObjectID
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Owns reports whether the caller may act on a resource of ownerID.
func (c Caller) Owns(ownerID primitive.ObjectID) bool {
	return c.IsAdmin() || c.UserID == ownerID
}
