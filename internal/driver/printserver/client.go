package printserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

var (
	// ErrNetwork marks transport failures and non-2xx answers.
	ErrNetwork = errors.New("network error")
	// ErrMapping marks answers that could not be decoded.
	ErrMapping = errors.New("mapping error")
)

// ClientConfig holds the HTTP timeouts of the relay client.
type ClientConfig struct {
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:     5 * time.Second,
		ResponseTimeout: 30 * time.Second,
		Timeout:         60 * time.Second,
	}
}

// ToHTTPURL prefixes host with http:// unless present and appends :port
// unless host already ends with it.
func ToHTTPURL(host string, port int) string {
	u := host
	if !strings.HasPrefix(host, "http://") {
		u = "http://" + host
	}
	suffix := ":" + strconv.Itoa(port)
	if !strings.HasSuffix(host, suffix) {
		u += suffix
	}
	return u
}

// Client calls the print server HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL. A nil httpClient is built from cfg.
func NewClient(baseURL string, cfg ClientConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext,
				ResponseHeaderTimeout: cfg.ResponseTimeout,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "printserver-client")),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Hi(ctx context.Context) (model.MessageResponse, error) {
	var out model.MessageResponse
	err := c.postJSON(ctx, "/hi", nil, &out)
	return out, err
}

func (c *Client) Version(ctx context.Context) (model.VersionResponse, error) {
	var out model.VersionResponse
	err := c.postJSON(ctx, "/version", nil, &out)
	return out, err
}

func (c *Client) DeviceTypes(ctx context.Context) (model.DevicesResponse, error) {
	var out model.DevicesResponse
	err := c.postJSON(ctx, "/supportDeviceType", nil, &out)
	return out, err
}

func (c *Client) Models(ctx context.Context, typeID int) (model.ModelsResponse, error) {
	var out model.ModelsResponse
	err := c.postForm(ctx, "/supportModels", url.Values{"typeId": {strconv.Itoa(typeID)}}, &out)
	return out, err
}

// DeviceSettings returns the default settings presenters of a driver.
func (c *Client) DeviceSettings(ctx context.Context, driverID string) (model.SettingsResponse, error) {
	var out model.SettingsResponse
	err := c.postForm(ctx, "/deviceSetting", url.Values{"driverId": {driverID}}, &out)
	return out, err
}

// ExtractDeviceSettings returns the presenters filled from a compressed blob.
func (c *Client) ExtractDeviceSettings(ctx context.Context, blob string) (model.SettingsResponse, error) {
	var out model.SettingsResponse
	err := c.postForm(ctx, "/deviceSetting", url.Values{"settingZip": {blob}}, &out)
	return out, err
}

// CompressSettings packs filled values into a blob.
func (c *Client) CompressSettings(ctx context.Context, values model.SettingsValues) (model.CompressedSettingsResponse, error) {
	var out model.CompressedSettingsResponse
	err := c.postJSON(ctx, "/deviceSettingZip", values, &out)
	return out, err
}

func (c *Client) Taxes(ctx context.Context, settings string) (model.TaxesResponse, error) {
	var out model.TaxesResponse
	err := c.postJSON(ctx, "/taxes", model.SettingsRequest{Settings: settings}, &out)
	return out, err
}

func (c *Client) Execute(ctx context.Context, req model.TasksRequest) (model.EquipmentResponse, error) {
	var out model.EquipmentResponse
	err := c.postJSON(ctx, "/execute", req, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMapping, err)
		}
		reader = bytes.NewReader(data)
	}
	return c.post(ctx, path, "application/json", reader, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Print server request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Print server request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: HTTP %d %s", ErrNetwork, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMapping, err)
	}
	return nil
}

// Message renders a client error for a response.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrMapping):
		return err.Error()
	default:
		return "unknown error: " + err.Error()
	}
}
