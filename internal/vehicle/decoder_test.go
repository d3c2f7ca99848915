package vehicle

import (
	"math"
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/models"
)

func TestApply_GlobalPositionScaling(t *testing.T) {
	s, changed := Apply(models.NewTelemetrySnapshot(), GlobalPositionFrame{
		Lat:         410123456,
		Lon:         289876543,
		RelativeAlt: 12345,
	})

	assert.True(t, changed)
	assert.InDelta(t, 41.0123456, s.Latitude, 1e-9)
	assert.InDelta(t, 28.9876543, s.Longitude, 1e-9)
	assert.InDelta(t, 12.345, s.Altitude, 1e-9)
}

func TestApply_AttitudeYawAlwaysInRange(t *testing.T) {
	cases := []float32{
		0, -math.Pi, math.Pi, -math.Pi / 2, math.Pi / 2,
		-0.0000001, 6.283185, -6.283185, 3 * math.Pi, -3 * math.Pi,
	}
	for _, yaw := range cases {
		s, changed := Apply(models.TelemetrySnapshot{}, AttitudeFrame{Yaw: yaw})
		assert.True(t, changed)
		assert.GreaterOrEqual(t, s.Yaw, 0.0, "yaw=%v", yaw)
		assert.Less(t, s.Yaw, 360.0, "yaw=%v", yaw)
	}

	s, _ := Apply(models.TelemetrySnapshot{}, AttitudeFrame{Roll: math.Pi / 4, Pitch: -math.Pi / 6, Yaw: -math.Pi / 2})
	assert.InDelta(t, 45, s.Roll, 1e-4)
	assert.InDelta(t, -30, s.Pitch, 1e-4)
	assert.InDelta(t, 270, s.Yaw, 1e-4)
}

func TestApply_BatteryStatusSentinelExclusion(t *testing.T) {
	var cells [10]uint16
	for i := range cells {
		cells[i] = batteryCellUnused
	}
	cells[0], cells[1], cells[2] = 4100, 4100, 4100

	s, changed := Apply(models.TelemetrySnapshot{}, BatteryStatusFrame{ID: 0, Voltages: cells})
	assert.True(t, changed)
	require.NotNil(t, s.Battery0)
	assert.InDelta(t, 12.3, *s.Battery0, 1e-9)
	assert.Nil(t, s.Battery1)

	s, _ = Apply(s, BatteryStatusFrame{ID: 1, Voltages: cells})
	require.NotNil(t, s.Battery1)
	assert.InDelta(t, 12.3, *s.Battery1, 1e-9)
}

func TestApply_BatteryStatusFirstCellMissing(t *testing.T) {
	cells := [10]uint16{batteryCellUnused, 4000, 4000}
	prev := 22.2
	s, _ := Apply(models.TelemetrySnapshot{Battery0: &prev}, BatteryStatusFrame{ID: 0, Voltages: cells})
	require.NotNil(t, s.Battery0)
	assert.Equal(t, 22.2, *s.Battery0)
}

func TestApply_BatteryStatusUnknownBankIgnored(t *testing.T) {
	cells := [10]uint16{4000}
	s, _ := Apply(models.TelemetrySnapshot{}, BatteryStatusFrame{ID: 2, Voltages: cells})
	assert.Nil(t, s.Battery0)
	assert.Nil(t, s.Battery1)
}

func TestApply_SysStatus(t *testing.T) {
	s, _ := Apply(models.TelemetrySnapshot{}, SysStatusFrame{VoltageBattery: 0})
	assert.Nil(t, s.Battery0)

	s, _ = Apply(s, SysStatusFrame{VoltageBattery: 24600})
	require.NotNil(t, s.Battery0)
	assert.InDelta(t, 24.6, *s.Battery0, 1e-9)
}

func TestApply_HeartbeatDoesNotPublish(t *testing.T) {
	s, changed := Apply(models.TelemetrySnapshot{}, HeartbeatFrame{SystemID: 1})
	assert.False(t, changed)
	assert.True(t, s.Heartbeat)

	_, changed = Apply(s, CommandAckFrame{Command: common.MAV_CMD_COMPONENT_ARM_DISARM})
	assert.False(t, changed)
	_, changed = Apply(s, UnknownFrame{MessageID: 999})
	assert.False(t, changed)
}

func TestApply_PassThroughFields(t *testing.T) {
	s, _ := Apply(models.TelemetrySnapshot{}, GpsRawFrame{SatellitesVisible: 14})
	s, _ = Apply(s, VfrHudFrame{Groundspeed: 21.5})
	assert.Equal(t, 14, s.Satellites)
	assert.InDelta(t, 21.5, s.GroundSpeed, 1e-6)
}

func TestApply_OnlyOwnFieldsOverwritten(t *testing.T) {
	s := models.NewTelemetrySnapshot()
	s, _ = Apply(s, GpsRawFrame{SatellitesVisible: 9})
	assert.Equal(t, models.PlaceholderLatitude, s.Latitude)
	assert.Equal(t, models.PlaceholderLongitude, s.Longitude)
}

func TestFrameFromMessage(t *testing.T) {
	hb := FrameFromMessage(&common.MessageHeartbeat{BaseMode: common.MAV_MODE_FLAG_SAFETY_ARMED}, 3, 1)
	assert.Equal(t, HeartbeatFrame{SystemID: 3, ComponentID: 1, Armed: true}, hb)

	pos := FrameFromMessage(&common.MessageGlobalPositionInt{Lat: 1, Lon: 2, RelativeAlt: 3}, 1, 1)
	assert.Equal(t, GlobalPositionFrame{Lat: 1, Lon: 2, RelativeAlt: 3}, pos)

	ack := FrameFromMessage(&common.MessageCommandAck{
		Command: common.MAV_CMD_COMPONENT_ARM_DISARM,
		Result:  common.MAV_RESULT_ACCEPTED,
	}, 1, 1)
	assert.Equal(t, CommandAckFrame{Command: common.MAV_CMD_COMPONENT_ARM_DISARM, Result: common.MAV_RESULT_ACCEPTED}, ack)

	_, unknown := FrameFromMessage(&common.MessageParamValue{}, 1, 1).(UnknownFrame)
	assert.True(t, unknown)
}
