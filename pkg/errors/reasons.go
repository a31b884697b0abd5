package errors

// Reason narrows a Code down to the business rule that rejected the operation.
type Reason string

const (
	ReasonUnspecified Reason = ""

	// cart
	ReasonCartNotFound       Reason = "CART_NOT_FOUND"
	ReasonCartItemNotFound   Reason = "CART_ITEM_NOT_FOUND"
	ReasonVariantNotFound    Reason = "VARIANT_NOT_FOUND"
	ReasonProductUnavailable Reason = "PRODUCT_UNAVAILABLE"
	ReasonInsufficientStock  Reason = "INSUFFICIENT_STOCK"
	ReasonInvalidQuantity    Reason = "INVALID_QUANTITY"
	ReasonConcurrentUpdate   Reason = "CONCURRENT_UPDATE"

	// coupons
	ReasonCouponNotFound          Reason = "COUPON_NOT_FOUND"
	ReasonCouponAlreadyApplied    Reason = "COUPON_ALREADY_APPLIED"
	ReasonCouponExpiredOrInactive Reason = "COUPON_EXPIRED_OR_INACTIVE"
	ReasonCouponNotApplicable     Reason = "COUPON_NOT_APPLICABLE"
	ReasonCouponInUse             Reason = "COUPON_IN_USE"
	ReasonCouponCodeTaken         Reason = "COUPON_CODE_TAKEN"
	ReasonCouponRateLimited       Reason = "COUPON_RATE_LIMITED"

	// checkout
	ReasonEmptyCart          Reason = "EMPTY_CART"
	ReasonCartNotActive      Reason = "CART_NOT_ACTIVE"
	ReasonInvalidAddress     Reason = "INVALID_ADDRESS"
	ReasonPaymentInitFailed  Reason = "PAYMENT_INITIATION_FAILED"
	ReasonGatewayUnavailable Reason = "GATEWAY_UNAVAILABLE"

	// orders and payments
	ReasonOrderNotFound      Reason = "ORDER_NOT_FOUND"
	ReasonPaymentNotFound    Reason = "PAYMENT_NOT_FOUND"
	ReasonPaymentFailed      Reason = "PAYMENT_VERIFICATION_FAILED"
	ReasonInvalidOrderStatus Reason = "INVALID_ORDER_STATUS"

	// request shape
	ReasonInvalidQuery  Reason = "INVALID_QUERY"
	ReasonInvalidCursor Reason = "INVALID_CURSOR"
)
