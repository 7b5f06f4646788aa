package models

import "time"

// SettingsKey is the _id of the single settings document.
const SettingsKey = "global"

type CompanyInfo struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address" json:"address"`
}

type NotificationToggles struct {
	NewOrders     bool `bson:"newOrders" json:"newOrders"`
	LowStock      bool `bson:"lowStock" json:"lowStock"`
	Payments      bool `bson:"payments" json:"payments"`
	StatusUpdates bool `bson:"statusUpdates" json:"statusUpdates"`
}

type ShippingRates struct {
	Standard float64 `bson:"standard" json:"standard" binding:"gte=0"`
	Express  float64 `bson:"express" json:"express" binding:"gte=0"`
	Priority float64 `bson:"priority" json:"priority" binding:"gte=0"`
}

// Settings is the runtime business policy. It is read once at start and
// replaced wholesale by the admin update. TaxRate must stay zero because
// order pricing carries no tax.
type Settings struct {
	ID                string              `bson:"_id" json:"-"`
	Company           CompanyInfo         `bson:"company" json:"company"`
	Notifications     NotificationToggles `bson:"notifications" json:"notifications"`
	ShippingRates     ShippingRates       `bson:"shippingRates" json:"shippingRates"`
	LowStockThreshold int                 `bson:"lowStockThreshold" json:"lowStockThreshold" binding:"gte=0"`
	Currency          string              `bson:"currency" json:"currency" binding:"required,len=3"`
	MerchantUPI       string              `bson:"merchantUpi" json:"merchantUpi"`
	MerchantName      string              `bson:"merchantName" json:"merchantName"`
	TaxRate           float64             `bson:"taxRate" json:"taxRate" binding:"eq=0"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ShippingFee returns the flat fee for a method. Unknown methods cost the
// standard rate.
func (s Settings) ShippingFee(method string) float64 {
	switch method {
	case ShippingExpress:
		return s.ShippingRates.Express
	case ShippingPriority:
		return s.ShippingRates.Priority
	default:
		return s.ShippingRates.Standard
	}
}

func ValidShippingMethod(method string) bool {
	switch method {
	case ShippingStandard, ShippingExpress, ShippingPriority:
		return true
	}
	return false
}
