// Package broadcast fans pipeline and snapshot events out to websocket
// subscribers.
package broadcast

import (
	"time"
)

// Wire message types.
const (
	MsgNewCard          = "new_card"
	MsgMarketUpdate     = "market_update"
	MsgMacroUpdate      = "macro_update"
	MsgFXUpdate         = "fx_update"
	MsgCommodityUpdate  = "commodity_update"
	MsgPredictionUpdate = "prediction_update"
	MsgInitial          = "initial"
)

// Envelope is the frame every websocket message travels in.
type Envelope struct {
	Type string      `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

func newEnvelope(msgType string, data interface{}) Envelope {
	return Envelope{
		Type: msgType,
		Time: time.Now(),
		Data: data,
	}
}

// refreshCommand is the only inbound message subscribers may send.
type refreshCommand struct {
	Type string `json:"type"`
}
