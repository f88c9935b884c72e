// Package tcp probes network ranges for raw printers, classic fiscal
// registers and print servers.
package tcp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/discovery"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/driver/shtrih"
	"github.com/Softbalance/equipment/internal/model"
)

// maxHostsPerRange bounds the expansion of one CIDR.
const maxHostsPerRange = 1024

// Config for TCP scanner
type Config struct {
	ScanTimeout   time.Duration `mapstructure:"scan_timeout"`
	NetworkRanges []string      `mapstructure:"network_ranges"`
	ConnTimeout   time.Duration `mapstructure:"connection_timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	PrinterPort   int           `mapstructure:"printer_port"`
	ClassicPort   int           `mapstructure:"classic_port"`
	RelayPort     int           `mapstructure:"relay_port"`
}

// Scanner implements TCP network device scanning
type Scanner struct {
	logger *zap.Logger
	config *Config
	dialer *net.Dialer
}

var _ discovery.DeviceScanner = (*Scanner)(nil)

// NewScanner creates a new TCP scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			ScanTimeout:   60 * time.Second,
			NetworkRanges: []string{"192.168.1.0/24"},
			ConnTimeout:   time.Second,
			MaxConcurrent: 32,
		}
	}
	if config.PrinterPort == 0 {
		config.PrinterPort = escpos.DefaultSettings().Port
	}
	if config.ClassicPort == 0 {
		config.ClassicPort = shtrih.DefaultSettings().Port
	}
	if config.RelayPort == 0 {
		config.RelayPort = printserver.DefaultSettings().Port
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
		dialer: &net.Dialer{Timeout: config.ConnTimeout},
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether any range is configured.
func (s *Scanner) IsAvailable() bool {
	return len(s.config.NetworkRanges) > 0
}

type target struct {
	host string
	port int
}

// Scan dials every host of the configured ranges on the printer, classic
// register and relay ports.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	s.logger.Info("Starting TCP network scan", zap.Strings("ranges", s.config.NetworkRanges))

	hosts, err := ExpandRanges(s.config.NetworkRanges)
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	targets := make(chan target)
	results := make(chan *discovery.DiscoveredDevice)

	workers := s.config.MaxConcurrent
	if workers <= 0 {
		workers = 8
	}
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range targets {
				if d := s.probe(scanCtx, t); d != nil {
					results <- d
				}
			}
		}()
	}

	go func() {
		defer close(targets)
		for _, host := range hosts {
			for _, port := range []int{s.config.PrinterPort, s.config.ClassicPort, s.config.RelayPort} {
				select {
				case targets <- target{host: host, port: port}:
				case <-scanCtx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var discovered []*discovery.DiscoveredDevice
	for d := range results {
		discovered = append(discovered, d)
	}

	s.logger.Info("TCP scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, nil
}

func (s *Scanner) probe(ctx context.Context, t target) *discovery.DiscoveredDevice {
	address := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	conn, err := s.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil
	}
	_ = conn.Close()

	device := &discovery.DiscoveredDevice{ConnectionType: model.ConnectionTypeTCP, Address: address}
	switch t.port {
	case s.config.RelayPort:
		if !s.isRelay(ctx, t) {
			return nil
		}
		settings := printserver.DefaultSettings()
		settings.Host, settings.Port = t.host, t.port
		device.Driver, device.Model = model.DriverPrintServer, "Print server"
		device.Settings = printserver.PackSettings(settings)
	case s.config.ClassicPort:
		settings := shtrih.Settings{Host: t.host, Port: t.port}
		device.Driver, device.Model = model.DriverShtrih, "Classic fiscal register"
		device.Settings = shtrih.PackSettings(settings)
	default:
		settings := escpos.DefaultSettings()
		settings.Host, settings.Port = t.host, t.port
		device.Driver, device.Model = model.DriverPosiflex, "Network receipt printer"
		device.Settings = escpos.PackSettings(settings)
	}
	s.logger.Debug("Device answered", zap.String("address", address), zap.String("driver", string(device.Driver)))
	return device
}

func (s *Scanner) isRelay(ctx context.Context, t target) bool {
	client := printserver.NewClient(printserver.ToHTTPURL(t.host, t.port), printserver.ClientConfig{
		DialTimeout:     s.config.ConnTimeout,
		ResponseTimeout: s.config.ConnTimeout,
		Timeout:         2 * s.config.ConnTimeout,
	}, nil, s.logger)
	resp, err := client.Hi(ctx)
	return err == nil && resp.IsSuccess()
}

// ExpandRanges turns CIDRs and plain addresses into host addresses. Network
// and broadcast addresses of IPv4 prefixes shorter than /31 are skipped.
func ExpandRanges(ranges []string) ([]string, error) {
	var hosts []string
	for _, r := range ranges {
		if addr, err := netip.ParseAddr(r); err == nil {
			hosts = append(hosts, addr.String())
			continue
		}
		prefix, err := netip.ParsePrefix(r)
		if err != nil {
			return nil, fmt.Errorf("invalid network range %q: %w", r, err)
		}
		prefix = prefix.Masked()

		var block []string
		for addr := prefix.Addr(); prefix.Contains(addr) && len(block) < maxHostsPerRange; addr = addr.Next() {
			block = append(block, addr.String())
		}
		if prefix.Addr().Is4() && prefix.Bits() < 31 && len(block) > 2 {
			block = block[1:]
			if !prefix.Contains(netip.MustParseAddr(block[len(block)-1]).Next()) {
				block = block[:len(block)-1]
			}
		}
		hosts = append(hosts, block...)
	}
	return hosts, nil
}
