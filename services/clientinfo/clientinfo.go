package clientinfo

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/avct/uasurfer"
	"github.com/gofiber/fiber/v2"
)

// Metadata describes the client that sent a request.
type Metadata struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Device    string `json:"device"`
	OS        string `json:"os"`
	Browser   string `json:"browser"`
	Referrer  string `json:"referrer,omitempty"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// FromRequest collects client metadata from a fiber request.
func (p *Parser) FromRequest(c *fiber.Ctx) Metadata {
	md := p.Parse(c.Get(fiber.HeaderUserAgent))
	md.IP = ClientIP(c)
	md.Referrer = c.Get(fiber.HeaderReferer)
	return md
}

// Parse classifies a user agent string.
func (p *Parser) Parse(userAgent string) Metadata {
	md := Metadata{
		UserAgent: userAgent,
		Device:    "unknown",
		OS:        "unknown",
		Browser:   "unknown",
	}
	if userAgent == "" {
		return md
	}

	ua := uasurfer.Parse(userAgent)
	switch ua.DeviceType {
	case uasurfer.DeviceComputer:
		md.Device = "desktop"
	case uasurfer.DeviceTablet:
		md.Device = "tablet"
	case uasurfer.DevicePhone:
		md.Device = "mobile"
	case uasurfer.DeviceConsole:
		md.Device = "console"
	case uasurfer.DeviceWearable:
		md.Device = "wearable"
	case uasurfer.DeviceTV:
		md.Device = "tv"
	}

	if ua.OS.Name != uasurfer.OSUnknown {
		md.OS = strings.TrimPrefix(ua.OS.Name.String(), "OS")
	}
	if ua.Browser.Name != uasurfer.BrowserUnknown {
		md.Browser = strings.TrimPrefix(ua.Browser.Name.String(), "Browser")
	}
	return md
}

// TrustProxy makes c.IP() read the client address from header, but only when
// the socket peer is listed in trusted (addresses or CIDR ranges). Requests from
// anywhere else keep their socket address, as does an empty header.
func TrustProxy(cfg fiber.Config, header string, trusted []string) fiber.Config {
	cfg.ProxyHeader = header
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = trusted
	cfg.EnableIPValidation = true
	return cfg
}

// ClientIP returns the caller address as resolved by the app's proxy settings.
func ClientIP(c *fiber.Ctx) string {
	return c.IP()
}

// Fingerprint derives the duplicate-submission key for a client. A device id,
// when the client sends one, is stable across networks and wins over the IP.
func Fingerprint(ip, deviceID string) string {
	source := "ip:" + ip
	if deviceID = strings.TrimSpace(deviceID); deviceID != "" {
		source = "device:" + deviceID
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
