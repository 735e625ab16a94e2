package coupons

import "errors"

// Error carries a stable machine-readable code alongside the message the
// storefront shows.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

var (
	ErrNotFound  = &Error{Code: "COUPON_NOT_FOUND", Msg: "coupon not found or inactive"}
	ErrExpired   = &Error{Code: "COUPON_EXPIRED", Msg: "coupon has expired"}
	ErrExhausted = &Error{Code: "COUPON_EXHAUSTED", Msg: "coupon usage limit reached"}
	ErrUserLimit = &Error{Code: "COUPON_USER_LIMIT_REACHED", Msg: "coupon already used the maximum number of times"}
)

func AsCouponError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
