package shtrih

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	connectTimeout  = 5 * time.Second
	defaultBaudRate = 115200
)

// Settings locates a classic fiscal register on the network, or on a
// serial port when DeviceName is set.
type Settings struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	DeviceName string `json:"deviceName,omitempty"`
	BaudRate   int    `json:"baudRate,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{Host: "192.168.", Port: 7778}
}

// ExtractSettings parses s over the defaults. Malformed input yields the
// defaults.
func ExtractSettings(s string) Settings {
	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(s), &settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

func PackSettings(settings Settings) string {
	data, _ := json.Marshal(settings)
	return string(data)
}

// ConnectionURI returns the classic driver connection string.
func (s Settings) ConnectionURI() string {
	if s.DeviceName != "" {
		baud := s.BaudRate
		if baud == 0 {
			baud = defaultBaudRate
		}
		return fmt.Sprintf("serial://%s?baudrate=%d&timeout=%d", s.DeviceName, baud, connectTimeout.Milliseconds())
	}
	return fmt.Sprintf("tcp://%s:%d?timeout=%d&protocol=v1", s.Host, s.Port, connectTimeout.Milliseconds())
}
