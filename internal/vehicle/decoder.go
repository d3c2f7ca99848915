package vehicle

import (
	"math"

	"ufk_gcs/internal/models"
)

// Apply aplica um quadro sobre o snapshot e informa se a telemetria deve ser
// republicada. Heartbeat, ACK e quadros desconhecidos não republicam.
func Apply(s models.TelemetrySnapshot, f Frame) (models.TelemetrySnapshot, bool) {
	switch fr := f.(type) {
	case HeartbeatFrame:
		s.Heartbeat = true
		return s, false

	case GlobalPositionFrame:
		s.Latitude = float64(fr.Lat) / 1e7
		s.Longitude = float64(fr.Lon) / 1e7
		s.Altitude = float64(fr.RelativeAlt) / 1000.0
		return s, true

	case AttitudeFrame:
		s.Roll = degrees(fr.Roll)
		s.Pitch = degrees(fr.Pitch)
		s.Yaw = normalizeHeading(degrees(fr.Yaw))
		return s, true

	case GpsRawFrame:
		s.Satellites = int(fr.SatellitesVisible)
		return s, true

	case VfrHudFrame:
		s.GroundSpeed = float64(fr.Groundspeed)
		return s, true

	case SysStatusFrame:
		if fr.VoltageBattery > 0 {
			s.Battery0 = volts(float64(fr.VoltageBattery) / 1000.0)
		}
		return s, true

	case BatteryStatusFrame:
		if v, ok := packVoltage(fr.Voltages); ok {
			switch fr.ID {
			case 0:
				s.Battery0 = volts(v)
			case 1:
				s.Battery1 = volts(v)
			}
		}
		return s, true
	}

	return s, false
}

// packVoltage soma as células presentes; se a primeira célula for o sentinela
// o pacote é considerado sem leitura
func packVoltage(cells [10]uint16) (float64, bool) {
	if cells[0] == batteryCellUnused {
		return 0, false
	}
	var sum int
	for _, c := range cells {
		if c != batteryCellUnused {
			sum += int(c)
		}
	}
	return float64(sum) / 1000.0, true
}

func degrees(rad float32) float64 {
	return float64(rad) * 180.0 / math.Pi
}

// normalizeHeading leva qualquer ângulo para [0, 360)
func normalizeHeading(deg float64) float64 {
	h := math.Mod(deg+360, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// volts aloca um novo valor para não compartilhar ponteiro entre snapshots
func volts(v float64) *float64 {
	return &v
}
