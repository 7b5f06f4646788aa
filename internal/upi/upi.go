// Package upi builds UPI deep links and their QR codes.
package upi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length of generated QR images in pixels.
const QRSize = 300

var ErrInvalidAmount = errors.New("invalid amount for UPI payment link")

var feeRate = decimal.RequireFromString("0.01")

type Merchant struct {
	VPA  string
	Name string
}

// PaymentLink is a upi://pay URL plus the split of the amount between the
// merchant and the 1% service fee.
type PaymentLink struct {
	URL            string  `json:"upiUrl"`
	TotalAmount    float64 `json:"totalAmount"`
	MerchantAmount float64 `json:"merchantAmount"`
	ServiceFee     float64 `json:"serviceFee"`
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// FormatAmount prints amount with two decimals, dropping a ".00" suffix.
func FormatAmount(amount decimal.Decimal) string {
	return strings.TrimSuffix(amount.StringFixed(2), ".00")
}

func Link(m Merchant, amount float64, txnRef, note string) (PaymentLink, error) {
	total := decimal.NewFromFloat(amount).Round(2)
	if !total.IsPositive() {
		return PaymentLink{}, ErrInvalidAmount
	}
	fee := total.Mul(feeRate).Round(2)

	link := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&tn=%s&tr=%s&cu=INR",
		m.VPA, escape(m.Name), FormatAmount(total), escape(note), escape(txnRef))

	return PaymentLink{
		URL:            link,
		TotalAmount:    total.InexactFloat64(),
		MerchantAmount: total.Sub(fee).InexactFloat64(),
		ServiceFee:     fee.InexactFloat64(),
	}, nil
}

// QRCode renders content as a PNG data URL.
func QRCode(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, QRSize)
	if err != nil {
		return "", fmt.Errorf("generate qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
