package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"ufk_gcs/pkg/logger"
)

const (
	// ServiceName identifica a estação nos metadados
	ServiceName = "ufk-gcs"

	// ServiceType é o tipo mDNS anunciado e procurado
	ServiceType = "_ufkgcs._tcp"

	// ServiceDomain é o domínio mDNS
	ServiceDomain = "local."

	// Version é a versão do formato dos metadados
	Version = "1.0"
)

// ErrNoAddress indica que nenhuma interface tem IPv4 utilizável
var ErrNoAddress = errors.New("nenhum endereço IPv4 disponível")

// Options descreve o que é anunciado
type Options struct {
	Instance string // vazio usa "<hostname>-gcs"
	Port     int
	TeamID   int
	Link     string
}

// Peer é outra estação encontrada na rede
type Peer struct {
	Instance string   `json:"instance"`
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Addrs    []string `json:"addrs"`
	TeamID   int      `json:"teamId"`
	Link     string   `json:"link,omitempty"`
}

// Advertiser anuncia o console da estação via mDNS e procura outras estações
type Advertiser struct {
	opts Options

	mu      sync.Mutex
	server  *zeroconf.Server
	address string
}

// NewAdvertiser prepara o anúncio; nada é registrado até Start
func NewAdvertiser(opts Options) *Advertiser {
	if opts.Instance == "" {
		hostname, _ := os.Hostname()
		opts.Instance = hostname + "-gcs"
	}
	return &Advertiser{opts: opts}
}

// Instance retorna o nome da instância anunciada
func (a *Advertiser) Instance() string { return a.opts.Instance }

// Port retorna a porta anunciada
func (a *Advertiser) Port() int { return a.opts.Port }

// Address retorna o IP anunciado; vazio antes de Start
func (a *Advertiser) Address() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.address
}

// Running informa se o anúncio está ativo
func (a *Advertiser) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// TXTRecords monta os metadados do anúncio
func (a *Advertiser) TXTRecords(ip string) []string {
	return []string{
		"version=" + Version,
		"name=" + ServiceName,
		"ip=" + ip,
		"team=" + strconv.Itoa(a.opts.TeamID),
		"link=" + a.opts.Link,
		"ws=/ws",
		"api=/api",
	}
}

// Start registra o serviço; chamadas repetidas não têm efeito
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	ip, err := LocalIP()
	if err != nil {
		return fmt.Errorf("anúncio mDNS: %w", err)
	}

	server, err := zeroconf.Register(a.opts.Instance, ServiceType, ServiceDomain, a.opts.Port, a.TXTRecords(ip), nil)
	if err != nil {
		return fmt.Errorf("anúncio mDNS: %w", err)
	}

	a.server = server
	a.address = ip
	logger.Infof("Anúncio mDNS ativo: %s.%s em %s:%d", a.opts.Instance, ServiceType, ip, a.opts.Port)
	return nil
}

// Stop remove o anúncio
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logger.Info("Anúncio mDNS removido")
}

// Browse procura outras estações durante wait. A própria instância é omitida.
func (a *Advertiser) Browse(ctx context.Context, wait time.Duration) ([]Peer, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver mDNS: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("busca mDNS: %w", err)
	}

	var peers []Peer
	for {
		select {
		case <-ctx.Done():
			return peers, nil
		case entry, ok := <-entries:
			if !ok {
				return peers, nil
			}
			if entry.Instance == a.opts.Instance {
				continue
			}
			peers = append(peers, peerFromEntry(entry))
		}
	}
}

func peerFromEntry(e *zeroconf.ServiceEntry) Peer {
	p := Peer{
		Instance: e.Instance,
		Host:     e.HostName,
		Port:     e.Port,
	}
	for _, ip := range e.AddrIPv4 {
		p.Addrs = append(p.Addrs, ip.String())
	}
	for key, value := range parseTXT(e.Text) {
		switch key {
		case "team":
			p.TeamID, _ = strconv.Atoi(value)
		case "link":
			p.Link = value
		}
	}
	return p
}

// parseTXT converte registros "chave=valor"; entradas sem "=" são ignoradas
func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		if key, value, ok := strings.Cut(r, "="); ok {
			out[key] = value
		}
	}
	return out
}

// LocalIP retorna o primeiro IPv4 de uma interface ativa que não seja loopback
func LocalIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ip4 := ipnet.IP.To4(); ip4 != nil {
					return ip4.String(), nil
				}
			}
		}
	}
	return "", ErrNoAddress
}
