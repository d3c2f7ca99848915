package vehicle

import (
	"math"
	"testing"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"

	"ufk_gcs/internal/models"
)

func TestManualControlMessage_Scaling(t *testing.T) {
	msg := manualControlMessage(target{system: 1, component: 1}, models.ManualControl{
		Pitch: 0.5, Roll: -0.5, Throttle: 0, Yaw: 0,
	})

	assert.Equal(t, uint8(1), msg.Target)
	assert.Equal(t, int16(500), msg.X)
	assert.Equal(t, int16(-500), msg.Y)
	assert.Equal(t, int16(0), msg.Z)
	assert.Equal(t, int16(0), msg.R)
	assert.Equal(t, uint16(0), msg.Buttons)
}

func TestAxis_TruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int16(1), axis(0.0019))
	assert.Equal(t, int16(-1), axis(-0.0019))
	assert.Equal(t, int16(1000), axis(1))
	assert.Equal(t, int16(-1000), axis(-1))
}

func TestAxis_ClampedToThousand(t *testing.T) {
	assert.Equal(t, int16(1000), axis(5))
	assert.Equal(t, int16(-1000), axis(-40))
	assert.Equal(t, int16(0), axis(math.NaN()))

	msg := manualControlMessage(target{system: 1}, models.ManualControl{Pitch: 5, Roll: -40, Throttle: 1})
	assert.Equal(t, int16(1000), msg.X)
	assert.Equal(t, int16(-1000), msg.Y)
	assert.Equal(t, int16(1000), msg.Z)
}

func TestMotorTestMessage_Params(t *testing.T) {
	msg := motorTestMessage(target{system: 2, component: 1}, models.MotorTest{MotorID: 3})

	assert.Equal(t, common.MAV_CMD_DO_MOTOR_TEST, msg.Command)
	assert.Equal(t, uint8(2), msg.TargetSystem)
	assert.Equal(t, float32(3), msg.Param1)
	assert.Equal(t, float32(0), msg.Param2)
	assert.Equal(t, float32(15), msg.Param3)
	assert.Equal(t, float32(3), msg.Param4)
	assert.Equal(t, float32(1), msg.Param5)
}

func TestArmAndMissionStartMessages(t *testing.T) {
	arm := armMessage(defaultTarget)
	assert.Equal(t, common.MAV_CMD_COMPONENT_ARM_DISARM, arm.Command)
	assert.Equal(t, float32(1), arm.Param1)

	start := missionStartMessage(defaultTarget)
	assert.Equal(t, common.MAV_CMD_MISSION_START, start.Command)
}
