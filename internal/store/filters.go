package store

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Skip() int64 {
	n := p.Normalize()
	return int64((n.Page - 1) * n.Limit)
}

// Window returns the [start, end) slice bounds of this page over total items.
func (p Page) Window(total int) (int, int) {
	n := p.Normalize()
	start := (n.Page - 1) * n.Limit
	if start > total {
		start = total
	}
	end := start + n.Limit
	if end > total {
		end = total
	}
	return start, end
}

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitle     = "title"
	SortTotalAsc  = "total_asc"
	SortTotalDesc = "total_desc"
)

type ProductFilter struct {
	CategoryID  *primitive.ObjectID
	Statuses    []string
	Search      string
	Featured    *bool
	MinPrice    *float64
	MaxPrice    *float64
	StockStatus string
	Sort        string
	Page        Page
}

// Matches reports whether p passes every filter field. Used by memstore and
// by tests; mongostore translates the same fields into a query.
func (f ProductFilter) Matches(p models.Product) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, p.Status) {
		return false
	}
	if f.Search != "" && !containsFold(p.Title, f.Search) && !containsFold(p.Description, f.Search) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.StockStatus != "" && models.StockStatusFor(p.Stock) != f.StockStatus {
		return false
	}
	return true
}

// ProductPatch carries the fields of a partial product update. Nil fields
// are left untouched.
type ProductPatch struct {
	Title            *string
	Description      *string
	CategoryID       *primitive.ObjectID
	Images           *models.StringList
	Price            *float64
	DiscountPrice    *float64
	Stock            *int
	MinOrderQuantity *int
	Features         *models.StringList
	Specifications   *[]models.Specification
	Warranty         *string
	Status           *string
	Featured         *bool
	UpdatedAt        time.Time
}

func (patch ProductPatch) ApplyTo(p *models.Product) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.DiscountPrice != nil {
		p.DiscountPrice = *patch.DiscountPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.MinOrderQuantity != nil {
		p.MinOrderQuantity = *patch.MinOrderQuantity
	}
	if patch.Features != nil {
		p.Features = *patch.Features
	}
	if patch.Specifications != nil {
		p.Specifications = *patch.Specifications
	}
	if patch.Warranty != nil {
		p.Warranty = *patch.Warranty
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}
	p.UpdatedAt = patch.UpdatedAt
}

type CategoryFilter struct {
	ActiveOnly bool
	Search     string
}

func (f CategoryFilter) Matches(c models.Category) bool {
	if f.ActiveOnly && !c.IsActive {
		return false
	}
	if f.Search != "" && !containsFold(c.Name, f.Search) && !containsFold(c.Description, f.Search) {
		return false
	}
	return true
}

type OrderFilter struct {
	CustomerID    *primitive.ObjectID
	Status        string
	PaymentStatus string
	// Search matches the order number and the customer name or email.
	Search string
	From   *time.Time
	To     *time.Time
	Sort   string
	Page   Page
}

func (f OrderFilter) Matches(o models.Order) bool {
	if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.Payment.Status != f.PaymentStatus {
		return false
	}
	if f.Search != "" &&
		!containsFold(o.OrderNumber, f.Search) &&
		!containsFold(o.CustomerInfo.Name, f.Search) &&
		!containsFold(o.CustomerInfo.Email, f.Search) {
		return false
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !o.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

type ProfilePatch struct {
	Name      *string
	Phone     *string
	Company   *string
	UpdatedAt time.Time
}

// UserFilter selects accounts for the admin listings. Search matches the
// name, email and company. Results are newest first.
type UserFilter struct {
	Role           string
	CustomerType   string
	ApprovalStatus string
	Search         string
	Page           Page
}

func (f UserFilter) Matches(u models.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.CustomerType != "" && customerType(u) != f.CustomerType {
		return false
	}
	if f.ApprovalStatus != "" && u.ApprovalStatus != f.ApprovalStatus {
		return false
	}
	if f.Search != "" &&
		!containsFold(u.Name, f.Search) &&
		!containsFold(u.Email, f.Search) &&
		!containsFold(u.Company, f.Search) {
		return false
	}
	return true
}

func customerType(u models.User) string {
	if u.IsB2B() {
		return models.CustomerB2B
	}
	return models.CustomerB2C
}

// AccountPatch carries the admin-side account changes. Nil fields are left
// untouched.
type AccountPatch struct {
	Role            *string
	ApprovalStatus  *string
	ApprovedBy      *primitive.ObjectID
	ApprovedAt      *time.Time
	RejectedBy      *primitive.ObjectID
	RejectedAt      *time.Time
	RejectionReason *string
	UpdatedAt       time.Time
}

func (p AccountPatch) ApplyTo(u *models.User) {
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.ApprovalStatus != nil {
		u.ApprovalStatus = *p.ApprovalStatus
	}
	if p.ApprovedBy != nil {
		u.ApprovedBy = p.ApprovedBy
	}
	if p.ApprovedAt != nil {
		u.ApprovedAt = p.ApprovedAt
	}
	if p.RejectedBy != nil {
		u.RejectedBy = p.RejectedBy
	}
	if p.RejectedAt != nil {
		u.RejectedAt = p.RejectedAt
	}
	if p.RejectionReason != nil {
		u.RejectionReason = *p.RejectionReason
	}
	u.UpdatedAt = p.UpdatedAt
	u.Version++
}

// QuotationFilter selects quotation requests, newest first.
type QuotationFilter struct {
	CustomerID *primitive.ObjectID
	Status     string
	Page       Page
}

func (f QuotationFilter) Matches(q models.Quotation) bool {
	if f.CustomerID != nil && q.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	return true
}

type NotificationFilter struct {
	Type     string
	IsRead   *bool
	Priority string
	Page     Page
}

func (f NotificationFilter) Matches(n models.Notification) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.IsRead != nil && n.IsRead != *f.IsRead {
		return false
	}
	if f.Priority != "" && n.Priority != f.Priority {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
