package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registra os valores padrão de todas as chaves planas.
// Os valores do link e do servidor de competição são os mesmos que a estação
// grava no primeiro arranque.
func setDefaults(v *viper.Viper) {
	// Link com a aeronave
	v.SetDefault("plane_connection_type", "udp")
	v.SetDefault("plane_address", "0.0.0.0")
	v.SetDefault("plane_port", "14550")
	v.SetDefault("plane_serial_port", "/dev/ttyUSB0")
	v.SetDefault("plane_baud", "57600")
	v.SetDefault("camera_port", "5000")
	v.SetDefault("plane_system_id", 255)
	v.SetDefault("plane_idle_interval", 10*time.Millisecond)
	v.SetDefault("plane_arm_timeout", 5*time.Second)
	v.SetDefault("plane_queue_size", 256)

	// Servidor de competição
	v.SetDefault("server_address", "http://10.1.36.78:8000")
	v.SetDefault("server_username", "")
	v.SetDefault("server_password", "")
	v.SetDefault("team_id", 1)
	v.SetDefault("sync_period", 500*time.Millisecond)
	v.SetDefault("login_timeout", 5*time.Second)
	v.SetDefault("fetch_timeout", 3*time.Second)
	v.SetDefault("submit_timeout", 2*time.Second)
	v.SetDefault("ema_alpha", 0.1)

	// Console do operador (HTTP/WebSocket)
	v.SetDefault("console_port", 8080)
	v.SetDefault("console_read_timeout", 30*time.Second)
	v.SetDefault("console_write_timeout", 30*time.Second)
	v.SetDefault("console_shutdown_timeout", 10*time.Second)

	// Redis
	v.SetDefault("redis_enabled", false)
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "ufk_gcs")
	v.SetDefault("redis_ttl", 10*time.Second)

	// Descoberta mDNS
	v.SetDefault("discovery_enabled", true)
	v.SetDefault("discovery_instance", "UFK-GCS")

	// Arquivo de região
	v.SetDefault("region_file", "region.json")

	// Log
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_to_file", false)
	v.SetDefault("log_source", true)
	v.SetDefault("log_max_size_mb", 32)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 14)
}
