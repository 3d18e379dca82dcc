package escrow

import (
	"strconv"

	"swapvault/core/types"
)

const (
	// EventTypeTradeOpened is emitted when Make records a new trade.
	EventTypeTradeOpened = "escrow.trade.opened"
	// EventTypeTradeTaken is emitted when Take settles a trade.
	EventTypeTradeTaken = "escrow.trade.taken"
	// EventTypeTradeRefunded is emitted when Refund returns the deposit.
	EventTypeTradeRefunded = "escrow.trade.refunded"
)

// NewOpenedEvent returns the canonical payload for a newly opened trade.
func NewOpenedEvent(address types.Address, r *Record, deposit uint64) *types.Event {
	attrs := recordAttributes(address, r)
	attrs["depositAmount"] = strconv.FormatUint(deposit, 10)
	return &types.Event{Type: EventTypeTradeOpened, Attributes: attrs}
}

// NewTakenEvent returns the canonical payload for a cooperatively settled
// trade.
func NewTakenEvent(address types.Address, r *Record, taker types.Address, released uint64) *types.Event {
	attrs := recordAttributes(address, r)
	attrs["taker"] = taker.String()
	attrs["releasedAmount"] = strconv.FormatUint(released, 10)
	return &types.Event{Type: EventTypeTradeTaken, Attributes: attrs}
}

// NewRefundedEvent returns the canonical payload for a unilaterally closed
// trade.
func NewRefundedEvent(address types.Address, r *Record, returned uint64) *types.Event {
	attrs := recordAttributes(address, r)
	attrs["returnedAmount"] = strconv.FormatUint(returned, 10)
	return &types.Event{Type: EventTypeTradeRefunded, Attributes: attrs}
}

func recordAttributes(address types.Address, r *Record) map[string]string {
	attrs := make(map[string]string)
	attrs["record"] = address.String()
	if r == nil {
		return attrs
	}
	attrs["seed"] = strconv.FormatUint(r.Seed, 10)
	attrs["maker"] = r.Maker.String()
	attrs["assetA"] = r.AssetA.String()
	attrs["assetB"] = r.AssetB.String()
	attrs["receiveAmount"] = strconv.FormatUint(r.ReceiveAmount, 10)
	return attrs
}
