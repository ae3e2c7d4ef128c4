// Package useragent classifies User-Agent strings into coarse device types
// for structured logging on the tracking path.
package useragent

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser wraps the uap-go parser with device type detection
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string // Chrome, Firefox, Safari, etc.
	OS         string // Windows, iOS, Android, etc.
}

var (
	globalParser *Parser
	once         sync.Once
)

// NewParser creates a parser from a uap-core regexes.yaml file
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file: %w", err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))
	return &Parser{parser: parser, log: log}, nil
}

// InitGlobalParser initializes the process-wide parser instance
func InitGlobalParser(regexFilePath string, log *zap.Logger) error {
	var err error
	once.Do(func() {
		globalParser, err = NewParser(regexFilePath, log)
	})
	return err
}

// GetGlobalParser returns the singleton parser, or nil if it was never
// initialized (callers fall back to DetectDeviceType)
func GetGlobalParser() *Parser {
	return globalParser
}

// Parse returns device information for a User-Agent string
func (p *Parser) Parse(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{DeviceType: "unknown", Browser: "unknown", OS: "unknown"}
	}

	client := p.parser.Parse(userAgent)
	return &DeviceInfo{
		DeviceType: deviceType(client, userAgent),
		Browser:    orUnknown(client.UserAgent.Family),
		OS:         orUnknown(client.Os.Family),
	}
}

func deviceType(client *uaparser.Client, userAgent string) string {
	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "bot") || strings.Contains(ua, "crawler") || strings.Contains(ua, "spider") {
		return "bot"
	}

	switch client.Os.Family {
	case "iOS":
		if strings.Contains(userAgent, "iPad") {
			return "tablet"
		}
		return "mobile"
	case "Android":
		// Android tablets typically drop "Mobile" from the User-Agent
		if !strings.Contains(userAgent, "Mobile") {
			return "tablet"
		}
		return "mobile"
	case "Windows", "Mac OS X", "Linux", "Ubuntu", "Chrome OS":
		return "desktop"
	}

	return DetectDeviceType(userAgent)
}

// DetectDeviceType is the keyword fallback used when no parser is available
func DetectDeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, keyword := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, keyword) {
			return "bot"
		}
	}
	for _, keyword := range []string{"tablet", "ipad", "kindle", "silk", "playbook"} {
		if strings.Contains(ua, keyword) {
			return "tablet"
		}
	}
	for _, keyword := range []string{"mobile", "android", "iphone", "ipod", "blackberry", "windows phone", "opera mini"} {
		if strings.Contains(ua, keyword) {
			return "mobile"
		}
	}
	if ua == "" {
		return "unknown"
	}
	return "desktop"
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
