package model

import "time"

// FeatureUsage is the billing provider's answer to "may this customer use one more unit".
type FeatureUsage struct {
	Allowed       bool   `json:"allowed"`
	Balance       *int64 `json:"balance"`
	IncludedUsage int64  `json:"included_usage"`
	Usage         int64  `json:"usage"`
	Unlimited     bool   `json:"unlimited"`
	FeatureID     string `json:"feature_id,omitempty"`
	CustomerID    string `json:"customer_id,omitempty"`
}

// PaymentSession tracks a checkout handed off to the billing provider until the
// user returns to the app.
type PaymentSession struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         int64     `json:"user_id"`
	ProductID      string    `json:"product_id"`
	CheckoutURL    string    `json:"checkout_url"`
	CreatedAt      time.Time `json:"created_at"`
}
