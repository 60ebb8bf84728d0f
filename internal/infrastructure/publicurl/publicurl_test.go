package publicurl

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"localdrop/config"
)

func ipNet(s string) *net.IPNet {
	ip, n, _ := net.ParseCIDR(s)
	n.IP = ip
	return n
}

func TestLocalIPv4(t *testing.T) {
	cases := []struct {
		name  string
		addrs []net.Addr
		err   error
		want  string
	}{
		{"lan address", []net.Addr{ipNet("127.0.0.1/8"), ipNet("fe80::1/64"), ipNet("192.168.1.23/24")}, nil, "192.168.1.23"},
		{"skips link local", []net.Addr{ipNet("169.254.3.4/16"), ipNet("10.0.0.5/8")}, nil, "10.0.0.5"},
		{"only loopback", []net.Addr{ipNet("127.0.0.1/8"), ipNet("::1/128")}, nil, fallbackIP},
		{"lookup error", nil, errors.New("no interfaces"), fallbackIP},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := localIPv4(func() ([]net.Addr, error) { return tt.addrs, tt.err })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_URLs(t *testing.T) {
	r := &Resolver{logger: zap.NewNop(), port: "3000", ip: "192.168.1.23"}

	assert.Equal(t, "/uploads/17-My_Pic_.JPG", r.FileURL("17-My_Pic_.JPG"))
	assert.Equal(t, "/uploads/a%20b", r.FileURL("a b"))
	assert.Equal(t, "http://192.168.1.23:3000", r.UploadPageURL())
	assert.Equal(t, "192.168.1.23", r.LocalIP())
}

func TestNew_PublicURLOverride(t *testing.T) {
	r := New(zap.NewNop(), config.APP{Port: "3000", PublicURL: "https://drop.example.test/"})
	assert.Equal(t, "https://drop.example.test", r.UploadPageURL())
	assert.NotEmpty(t, r.LocalIP())
}
