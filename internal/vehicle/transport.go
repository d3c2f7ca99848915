package vehicle

import (
	"fmt"
	"strconv"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"go.bug.st/serial"

	"ufk_gcs/internal/config"
	"ufk_gcs/pkg/logger"
)

// Transport é o canal de quadros com a aeronave
type Transport interface {
	// Poll retorna o próximo quadro disponível sem bloquear; nil se não houver
	Poll() (Frame, error)
	// Send envia uma mensagem a todos os destinos do link
	Send(msg message.Message) error
	// Close libera o link
	Close() error
}

// TransportFactory abre um transporte a partir do descritor
type TransportFactory func(link config.LinkDescriptor, systemID uint8) (Transport, error)

// mavlinkTransport implementa Transport sobre um gomavlib.Node
type mavlinkTransport struct {
	node   *gomavlib.Node
	serial bool
}

// OpenMAVLink abre o link UDP (modo servidor) ou serial
func OpenMAVLink(link config.LinkDescriptor, systemID uint8) (Transport, error) {
	var (
		endpoint gomavlib.EndpointConf
		port     serial.Port
	)

	switch link.Kind {
	case config.LinkSerial:
		var err error
		port, err = serial.Open(link.Device, &serial.Mode{BaudRate: link.Baud})
		if err != nil {
			return nil, fmt.Errorf("erro ao abrir porta serial %s: %w", link.Device, err)
		}
		endpoint = gomavlib.EndpointCustom{ReadWriteCloser: port}
	default:
		endpoint = gomavlib.EndpointUDPServer{Address: udpAddress(link)}
	}

	node, err := gomavlib.NewNode(nodeConf(endpoint, systemID))
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, fmt.Errorf("erro ao inicializar nó MAVLink: %w", err)
	}

	logger.Infof("Link MAVLink aberto em %s", link)
	return &mavlinkTransport{node: node, serial: link.Kind == config.LinkSerial}, nil
}

// nodeConf descreve o nó: um endpoint, dialeto common, saída MAVLink v2
func nodeConf(endpoint gomavlib.EndpointConf, systemID uint8) gomavlib.NodeConf {
	return gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{endpoint},
		Dialect:     common.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: systemID,
	}
}

func udpAddress(link config.LinkDescriptor) string {
	return link.Address + ":" + strconv.Itoa(link.Port)
}

func (t *mavlinkTransport) Poll() (Frame, error) {
	for {
		select {
		case evt, ok := <-t.node.Events():
			if !ok {
				return nil, ErrTransportClosed
			}
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				return FrameFromMessage(e.Message(), e.SystemID(), e.ComponentID()), nil
			case *gomavlib.EventChannelOpen:
				logger.Debugf("Canal MAVLink aberto: %v", e.Channel)
			case *gomavlib.EventChannelClose:
				// No UDP um canal por remetente; só o serial encerra o link
				if t.serial {
					return nil, ErrTransportClosed
				}
				logger.Debugf("Canal MAVLink fechado: %v", e.Channel)
			case *gomavlib.EventParseError:
				logger.Debugf("Quadro MAVLink inválido ignorado: %v", e.Error)
			}
		default:
			return nil, nil
		}
	}
}

func (t *mavlinkTransport) Send(msg message.Message) error {
	return t.node.WriteMessageAll(msg)
}

func (t *mavlinkTransport) Close() error {
	t.node.Close()
	return nil
}
