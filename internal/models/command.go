package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Command é um comando do operador para a aeronave.
// O conjunto é fechado: apenas os tipos deste arquivo implementam a interface.
type Command interface {
	// Name retorna o nome do comando como aparece em logs e eventos
	Name() string
	isCommand()
}

// StartMission arma a aeronave e a coloca em modo automático
type StartMission struct{}

// ManualControl carrega os quatro eixos normalizados em [-1, 1]
type ManualControl struct {
	Pitch    float64 `json:"pitch"`
	Roll     float64 `json:"roll"`
	Throttle float64 `json:"throttle"`
	Yaw      float64 `json:"yaw"`
}

// Validate rejeita eixos fora de [-1, 1] (ou NaN)
func (c ManualControl) Validate() error {
	axes := []struct {
		name  string
		value float64
	}{
		{"pitch", c.Pitch},
		{"roll", c.Roll},
		{"throttle", c.Throttle},
		{"yaw", c.Yaw},
	}
	for _, a := range axes {
		if !(a.value >= -1 && a.value <= 1) {
			return fmt.Errorf("%w: %s=%v fora de [-1, 1]", ErrInvalidParams, a.name, a.value)
		}
	}
	return nil
}

// MotorTest gira um motor por alguns segundos
type MotorTest struct {
	MotorID int `json:"motor_id"`
}

func (StartMission) Name() string  { return "start_mission" }
func (ManualControl) Name() string { return "manual_control" }
func (MotorTest) Name() string     { return "motor_test" }

func (StartMission) isCommand()  {}
func (ManualControl) isCommand() {}
func (MotorTest) isCommand()     {}

var (
	// ErrUnknownCommand indica um nome de comando fora do conjunto aceito
	ErrUnknownCommand = errors.New("comando desconhecido")

	// ErrInvalidParams indica parâmetros fora do domínio do comando
	ErrInvalidParams = errors.New("parâmetros inválidos")
)

// DecodeCommand monta o comando a partir do nome e dos parâmetros JSON
// recebidos do console. Parâmetros vazios valem para start_mission.
func DecodeCommand(name string, params json.RawMessage) (Command, error) {
	switch name {
	case CommandStartMission:
		return StartMission{}, nil

	case CommandManualControl:
		var c ManualControl
		if err := decodeParams(params, &c); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil

	case CommandMotorTest:
		var c MotorTest
		if err := decodeParams(params, &c); err != nil {
			return nil, err
		}
		if c.MotorID < 1 {
			return nil, fmt.Errorf("%w: motor_id %d", ErrInvalidParams, c.MotorID)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return errors.New("parâmetros obrigatórios ausentes")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("parâmetros inválidos: %w", err)
	}
	return nil
}
