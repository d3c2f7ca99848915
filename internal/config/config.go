package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix é o prefixo das variáveis de ambiente que sobrescrevem o arquivo
const EnvPrefix = "UFK"

// Config representa a configuração completa da aplicação
type Config struct {
	Server      ServerConfig
	Vehicle     VehicleConfig
	Competition CompetitionConfig
	Redis       RedisConfig
	Discovery   DiscoveryConfig
	Region      RegionConfig
	Log         LogConfig
}

// ServerConfig contém configurações do console HTTP/WebSocket
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LinkKind identifica o meio físico do link com a aeronave
type LinkKind string

const (
	LinkUDP    LinkKind = "udp"
	LinkSerial LinkKind = "serial"
)

// LinkDescriptor descreve como abrir o link com a aeronave
type LinkDescriptor struct {
	Kind    LinkKind
	Address string
	Port    int
	Device  string
	Baud    int
}

// String retorna uma descrição curta do link, usada em logs e status
func (d LinkDescriptor) String() string {
	if d.Kind == LinkSerial {
		return fmt.Sprintf("serial:%s@%d", d.Device, d.Baud)
	}
	return fmt.Sprintf("udp:%s:%d", d.Address, d.Port)
}

// VehicleConfig contém configurações do link MAVLink
type VehicleConfig struct {
	ConnectionType string
	Address        string
	Port           int
	SerialPort     string
	Baud           int
	CameraPort     int
	SystemID       int
	IdleInterval   time.Duration
	ArmTimeout     time.Duration
	QueueSize      int
}

// Descriptor monta o descritor do link a partir das chaves planas
func (c VehicleConfig) Descriptor() LinkDescriptor {
	kind := LinkUDP
	if strings.EqualFold(strings.TrimSpace(c.ConnectionType), string(LinkSerial)) {
		kind = LinkSerial
	}
	return LinkDescriptor{
		Kind:    kind,
		Address: c.Address,
		Port:    c.Port,
		Device:  c.SerialPort,
		Baud:    c.Baud,
	}
}

// CompetitionConfig contém configurações do servidor de competição
type CompetitionConfig struct {
	BaseURL       string
	Username      string
	Password      string
	TeamID        int
	Period        time.Duration
	LoginTimeout  time.Duration
	FetchTimeout  time.Duration
	SubmitTimeout time.Duration
	Alpha         float64
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	Enabled  bool
}

// DiscoveryConfig contém configurações do anúncio mDNS
type DiscoveryConfig struct {
	Enabled  bool
	Instance string
}

// RegionConfig aponta para o arquivo de região/ponto QR
type RegionConfig struct {
	Path string
}

// LogConfig contém configurações de log
type LogConfig struct {
	Level      string
	Dir        string
	ToFile     bool
	Source     bool // marca [arquivo:linha] em cada linha
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load carrega a configuração: valores padrão, depois o arquivo JSON (se existir)
// e por fim as variáveis de ambiente UFK_*. Um caminho vazio usa apenas padrões
// e ambiente.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
			}
		}
	}

	return fromViper(v), nil
}

// fromViper mapeia as chaves planas nas seções tipadas
func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            v.GetInt("console_port"),
			ReadTimeout:     v.GetDuration("console_read_timeout"),
			WriteTimeout:    v.GetDuration("console_write_timeout"),
			ShutdownTimeout: v.GetDuration("console_shutdown_timeout"),
		},
		Vehicle: VehicleConfig{
			ConnectionType: v.GetString("plane_connection_type"),
			Address:        v.GetString("plane_address"),
			Port:           v.GetInt("plane_port"),
			SerialPort:     v.GetString("plane_serial_port"),
			Baud:           v.GetInt("plane_baud"),
			CameraPort:     v.GetInt("camera_port"),
			SystemID:       v.GetInt("plane_system_id"),
			IdleInterval:   v.GetDuration("plane_idle_interval"),
			ArmTimeout:     v.GetDuration("plane_arm_timeout"),
			QueueSize:      v.GetInt("plane_queue_size"),
		},
		Competition: CompetitionConfig{
			BaseURL:       strings.TrimRight(v.GetString("server_address"), "/"),
			Username:      v.GetString("server_username"),
			Password:      v.GetString("server_password"),
			TeamID:        v.GetInt("team_id"),
			Period:        v.GetDuration("sync_period"),
			LoginTimeout:  v.GetDuration("login_timeout"),
			FetchTimeout:  v.GetDuration("fetch_timeout"),
			SubmitTimeout: v.GetDuration("submit_timeout"),
			Alpha:         v.GetFloat64("ema_alpha"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetInt("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			Prefix:   v.GetString("redis_prefix"),
			TTL:      v.GetDuration("redis_ttl"),
			Enabled:  v.GetBool("redis_enabled"),
		},
		Discovery: DiscoveryConfig{
			Enabled:  v.GetBool("discovery_enabled"),
			Instance: v.GetString("discovery_instance"),
		},
		Region: RegionConfig{
			Path: v.GetString("region_file"),
		},
		Log: LogConfig{
			Level:      v.GetString("log_level"),
			Dir:        v.GetString("log_dir"),
			ToFile:     v.GetBool("log_to_file"),
			Source:     v.GetBool("log_source"),
			MaxSizeMB:  v.GetInt("log_max_size_mb"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAgeDays: v.GetInt("log_max_age_days"),
		},
	}
}
