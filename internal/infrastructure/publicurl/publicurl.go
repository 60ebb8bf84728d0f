package publicurl

import (
	"net"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"localdrop/config"
)

const (
	UploadsPath = "/uploads"
	fallbackIP  = "127.0.0.1"
)

// Resolver builds the URLs handed to clients: relative blob URLs for the
// gallery and an absolute LAN address for phones to open.
type Resolver struct {
	logger    *zap.Logger
	publicURL string
	port      string
	ip        string
}

func New(logger *zap.Logger, cfg config.APP) *Resolver {
	r := &Resolver{
		logger:    logger,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		port:      cfg.Port,
		ip:        localIPv4(net.InterfaceAddrs),
	}
	logger.Info("network access", zap.String("upload_url", r.UploadPageURL()))

	return r
}

func (r *Resolver) FileURL(identifier string) string {
	return UploadsPath + "/" + url.PathEscape(identifier)
}

func (r *Resolver) UploadPageURL() string {
	if r.publicURL != "" {
		return r.publicURL
	}
	return "http://" + net.JoinHostPort(r.ip, r.port)
}

func (r *Resolver) LocalIP() string { return r.ip }

// localIPv4 picks the first non-loopback, non-link-local IPv4 address.
func localIPv4(addrs func() ([]net.Addr, error)) string {
	list, err := addrs()
	if err != nil {
		return fallbackIP
	}
	for _, a := range list {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip.String()
	}
	return fallbackIP
}
