package vehicle

import (
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// batteryCellUnused marca célula ausente em BATTERY_STATUS.voltages
const batteryCellUnused = 65535

// Frame é um quadro MAVLink já decodificado. Conjunto fechado.
type Frame interface {
	isFrame()
}

// HeartbeatFrame indica que o piloto automático está vivo
type HeartbeatFrame struct {
	SystemID    uint8
	ComponentID uint8
	Armed       bool
}

// GlobalPositionFrame vem de GLOBAL_POSITION_INT (graus·1e7, mm)
type GlobalPositionFrame struct {
	Lat         int32
	Lon         int32
	RelativeAlt int32
}

// AttitudeFrame vem de ATTITUDE (radianos)
type AttitudeFrame struct {
	Roll  float32
	Pitch float32
	Yaw   float32
}

// GpsRawFrame vem de GPS_RAW_INT
type GpsRawFrame struct {
	SatellitesVisible uint8
}

// VfrHudFrame vem de VFR_HUD
type VfrHudFrame struct {
	Groundspeed float32
}

// SysStatusFrame vem de SYS_STATUS (mV)
type SysStatusFrame struct {
	VoltageBattery uint16
}

// BatteryStatusFrame vem de BATTERY_STATUS (mV por célula)
type BatteryStatusFrame struct {
	ID       uint8
	Voltages [10]uint16
}

// CommandAckFrame vem de COMMAND_ACK
type CommandAckFrame struct {
	Command common.MAV_CMD
	Result  common.MAV_RESULT
}

// UnknownFrame é qualquer mensagem que a estação não consome
type UnknownFrame struct {
	MessageID uint32
}

func (HeartbeatFrame) isFrame()      {}
func (GlobalPositionFrame) isFrame() {}
func (AttitudeFrame) isFrame()       {}
func (GpsRawFrame) isFrame()         {}
func (VfrHudFrame) isFrame()         {}
func (SysStatusFrame) isFrame()      {}
func (BatteryStatusFrame) isFrame()  {}
func (CommandAckFrame) isFrame()     {}
func (UnknownFrame) isFrame()        {}

// FrameFromMessage converte uma mensagem do dialeto common no quadro correspondente
func FrameFromMessage(msg message.Message, systemID, componentID uint8) Frame {
	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		return HeartbeatFrame{
			SystemID:    systemID,
			ComponentID: componentID,
			Armed:       m.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0,
		}
	case *common.MessageGlobalPositionInt:
		return GlobalPositionFrame{Lat: m.Lat, Lon: m.Lon, RelativeAlt: m.RelativeAlt}
	case *common.MessageAttitude:
		return AttitudeFrame{Roll: m.Roll, Pitch: m.Pitch, Yaw: m.Yaw}
	case *common.MessageGpsRawInt:
		return GpsRawFrame{SatellitesVisible: m.SatellitesVisible}
	case *common.MessageVfrHud:
		return VfrHudFrame{Groundspeed: m.Groundspeed}
	case *common.MessageSysStatus:
		return SysStatusFrame{VoltageBattery: m.VoltageBattery}
	case *common.MessageBatteryStatus:
		return BatteryStatusFrame{ID: m.Id, Voltages: m.Voltages}
	case *common.MessageCommandAck:
		return CommandAckFrame{Command: m.Command, Result: m.Result}
	case nil:
		return UnknownFrame{}
	default:
		return UnknownFrame{MessageID: msg.GetID()}
	}
}
