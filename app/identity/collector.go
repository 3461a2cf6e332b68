package identity

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// DeviceIdentity describes the local machine as sent to the registration
// endpoint. It is recomputed on every run.
type DeviceIdentity struct {
	DeviceName      string `json:"device_name"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Machine         string `json:"machine"`
	Processor       string `json:"processor"`
	DeviceID        string `json:"device_id"`
}

// UnknownDeviceName is used when the host name cannot be determined.
const UnknownDeviceName = "unknown"

// probes are the local facilities the collector reads from.
type probes struct {
	hostname func() (string, error)
	hostInfo func(context.Context) (*host.InfoStat, error)
	cpuInfo  func(context.Context) ([]cpu.InfoStat, error)
	nodeID   func() []byte
	goos     string
	goarch   string
}

// Option overrides a probe. Used by tests.
type Option func(*probes)

func withHostname(fn func() (string, error)) Option {
	return func(p *probes) { p.hostname = fn }
}

func withHostInfo(fn func(context.Context) (*host.InfoStat, error)) Option {
	return func(p *probes) { p.hostInfo = fn }
}

func withCPUInfo(fn func(context.Context) ([]cpu.InfoStat, error)) Option {
	return func(p *probes) { p.cpuInfo = fn }
}

func withNodeID(fn func() []byte) Option {
	return func(p *probes) { p.nodeID = fn }
}

// Collector gathers local machine attributes. It never touches the network
// and never fails: fields it cannot determine are left empty.
type Collector struct {
	probes probes
	log    zerolog.Logger
}

// NewCollector creates a new identity collector
func NewCollector(log zerolog.Logger, opts ...Option) *Collector {
	p := probes{
		hostname: os.Hostname,
		hostInfo: host.InfoWithContext,
		cpuInfo:  cpu.InfoWithContext,
		nodeID:   uuid.NodeID,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return &Collector{probes: p, log: log}
}

// Collect collects the device identity
func (c *Collector) Collect(ctx context.Context) DeviceIdentity {
	ident := DeviceIdentity{
		Platform: platformName(c.probes.goos),
		Machine:  c.probes.goarch,
	}

	info, err := c.probes.hostInfo(ctx)
	if err != nil || info == nil {
		c.log.Debug().Err(err).Msg("host info unavailable")
		info = &host.InfoStat{}
	}

	if hostname, err := c.probes.hostname(); err == nil && strings.TrimSpace(hostname) != "" {
		ident.DeviceName = hostname
	} else if info.Hostname != "" {
		ident.DeviceName = info.Hostname
	} else {
		ident.DeviceName = UnknownDeviceName
	}

	if info.OS != "" {
		ident.Platform = platformName(info.OS)
	}
	ident.PlatformVersion = firstNonEmpty(info.PlatformVersion, info.KernelVersion)
	if info.KernelArch != "" {
		ident.Machine = info.KernelArch
	}

	if cpus, err := c.probes.cpuInfo(ctx); err == nil && len(cpus) > 0 {
		ident.Processor = strings.TrimSpace(cpus[0].ModelName)
	} else if err != nil {
		c.log.Debug().Err(err).Msg("cpu info unavailable")
	}

	ident.DeviceID = hardwareID(c.probes.nodeID())

	c.log.Debug().
		Str("device_name", ident.DeviceName).
		Str("platform", ident.Platform).
		Str("device_id", ident.DeviceID).
		Msg("collected device identity")
	return ident
}

// hardwareID renders a 48-bit node identifier (usually a MAC address) as a
// decimal string. Virtual and privacy-randomized interfaces make this
// best-effort only; uuid.NodeID falls back to random bytes when no interface
// has a hardware address.
func hardwareID(node []byte) string {
	if len(node) != 6 {
		return ""
	}
	var v uint64
	for _, b := range node {
		v = v<<8 | uint64(b)
	}
	return strconv.FormatUint(v, 10)
}

// platformName maps GOOS style names to the names operating systems report
// for themselves.
func platformName(goos string) string {
	switch strings.ToLower(goos) {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "":
		return ""
	default:
		return goos
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
