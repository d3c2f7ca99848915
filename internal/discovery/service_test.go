package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
)

func TestNewAdvertiser_InstanceName(t *testing.T) {
	a := NewAdvertiser(Options{Instance: "UFK-GCS", Port: 8080})
	assert.Equal(t, "UFK-GCS", a.Instance())
	assert.Equal(t, 8080, a.Port())
	assert.False(t, a.Running())
	assert.Empty(t, a.Address())

	a = NewAdvertiser(Options{Port: 8080})
	assert.Contains(t, a.Instance(), "-gcs")
}

func TestTXTRecords(t *testing.T) {
	a := NewAdvertiser(Options{Instance: "x", TeamID: 7, Link: "serial:/dev/ttyUSB0@57600"})
	records := a.TXTRecords("192.168.1.10")

	assert.Contains(t, records, "ip=192.168.1.10")
	assert.Contains(t, records, "team=7")
	assert.Contains(t, records, "ws=/ws")
	assert.Contains(t, records, "link=serial:/dev/ttyUSB0@57600")
}

func TestPeerFromEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("rakip-gcs", ServiceType, ServiceDomain)
	entry.HostName = "rakip.local."
	entry.Port = 9090
	entry.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.5")}
	entry.Text = []string{"team=12", "link=udp:0.0.0.0:14550", "lixo"}

	p := peerFromEntry(entry)
	assert.Equal(t, "rakip-gcs", p.Instance)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, []string{"10.0.0.5"}, p.Addrs)
	assert.Equal(t, 12, p.TeamID)
	assert.Equal(t, "udp:0.0.0.0:14550", p.Link)
}

func TestStop_WhenNotRunning(t *testing.T) {
	a := NewAdvertiser(Options{})
	a.Stop()
	assert.False(t, a.Running())
}
