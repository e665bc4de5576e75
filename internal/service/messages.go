package service

import (
	"errors"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
)

// UserMessage picks the text shown for err. A success:false answer without
// a message gets business, a transport failure without one gets transport,
// anything else the generic message.
func UserMessage(err error, business, transport string) string {
	var be *gateway.BusinessError
	if errors.As(err, &be) {
		return gateway.Message(err, business)
	}
	var te *gateway.TransportError
	if errors.As(err, &te) {
		return gateway.Message(err, transport)
	}
	return MsgUnexpected
}
