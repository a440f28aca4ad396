package tracker

import (
	"fmt"

	e "github.com/tutumagi/mcentity/errors"
	"github.com/tutumagi/mcentity/protocol"
)

// ErrPacketDataCode packet data does not match the packet name
const ErrPacketDataCode = "Tracker_001"

// ErrPacketData 协议数据类型错误
var ErrPacketData = func(pk *protocol.Packet) *e.Error {
	return e.NewError(fmt.Errorf("unexpected data %T for packet %s", pk.Data, pk.Name), ErrPacketDataCode)
}
