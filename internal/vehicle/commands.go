package vehicle

import (
	"math"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"

	"ufk_gcs/internal/models"
)

// Parâmetros fixos do teste de motor: acelerador em porcentagem, 15%, 3 s, um motor
const (
	motorTestThrottleType = 0
	motorTestThrottle     = 15
	motorTestTimeoutSec   = 3
	motorTestCount        = 1
)

// target é o sistema/componente que recebe os comandos
type target struct {
	system    uint8
	component uint8
}

var defaultTarget = target{system: 1, component: 1}

func armMessage(t target) *common.MessageCommandLong {
	return &common.MessageCommandLong{
		TargetSystem:    t.system,
		TargetComponent: t.component,
		Command:         common.MAV_CMD_COMPONENT_ARM_DISARM,
		Param1:          1,
	}
}

// missionStartMessage coloca a aeronave em modo automático executando a missão carregada
func missionStartMessage(t target) *common.MessageCommandLong {
	return &common.MessageCommandLong{
		TargetSystem:    t.system,
		TargetComponent: t.component,
		Command:         common.MAV_CMD_MISSION_START,
	}
}

func manualControlMessage(t target, c models.ManualControl) *common.MessageManualControl {
	return &common.MessageManualControl{
		Target:  t.system,
		X:       axis(c.Pitch),
		Y:       axis(c.Roll),
		Z:       axis(c.Throttle),
		R:       axis(c.Yaw),
		Buttons: 0,
	}
}

func motorTestMessage(t target, c models.MotorTest) *common.MessageCommandLong {
	return &common.MessageCommandLong{
		TargetSystem:    t.system,
		TargetComponent: t.component,
		Command:         common.MAV_CMD_DO_MOTOR_TEST,
		Param1:          float32(c.MotorID),
		Param2:          motorTestThrottleType,
		Param3:          motorTestThrottle,
		Param4:          motorTestTimeoutSec,
		Param5:          motorTestCount,
	}
}

// Limite de cada eixo de MANUAL_CONTROL
const axisLimit = 1000

// axis converte [-1, 1] para milésimos, truncando em direção a zero.
// Valores fora da faixa são limitados a ±1000; NaN vira 0.
func axis(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	scaled := math.Trunc(v * axisLimit)
	if scaled > axisLimit {
		return axisLimit
	}
	if scaled < -axisLimit {
		return -axisLimit
	}
	return int16(scaled)
}
