package domain

const (
	EventCartUpdated       = "cart.updated"
	EventCartCouponApplied = "cart.coupon_applied"
)
