package printserver

import "encoding/json"

// Settings locates the print server and carries the compressed device
// settings forwarded with every request.
type Settings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Settings string `json:"settings"`
}

func DefaultSettings() Settings {
	return Settings{Host: "192.168.", Port: 8080}
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

// URL returns the base URL of the server.
func (s Settings) URL() string {
	return ToHTTPURL(s.Host, s.Port)
}
