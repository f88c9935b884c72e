package printserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/model"
)

func newTestRelay(t *testing.T, handler http.HandlerFunc) *PrintServer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := New(Settings{Host: server.URL, Settings: "blob"}, DefaultClientConfig(), server.Client(), zap.NewNop())
	p.client.baseURL = server.URL
	return p
}

func TestToHTTPURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"10.0.0.1", 8080, "http://10.0.0.1:8080"},
		{"http://10.0.0.1", 8080, "http://10.0.0.1:8080"},
		{"10.0.0.1:8080", 8080, "http://10.0.0.1:8080"},
		{"http://host:9000", 8080, "http://host:9000:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHTTPURL(tt.host, tt.port), tt.host)
	}
}

func TestRunBatchPostsTasks(t *testing.T) {
	var got model.TasksRequest
	p := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/execute", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"resultCode":0,"resultInfo":"done"}`))
	})

	tasks := []model.Task{model.NewTask(model.TaskString, "hello"), model.NewTask(model.TaskCut, "")}
	resp := p.RunBatch(context.Background(), tasks)

	assert.Equal(t, model.CodeSuccess, resp.ResultCode)
	assert.Equal(t, "done", resp.ResultInfo)
	assert.Equal(t, "blob", got.Settings)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, model.TaskCut, got.Tasks[1].Type)
}

func TestRunBatchRemoteFailurePassesThrough(t *testing.T) {
	p := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resultCode":4,"resultInfo":"paper out (task String)"}`))
	})
	resp := p.RunBatch(context.Background(), nil)
	assert.Equal(t, model.CodeHandlingError, resp.ResultCode)
	assert.Equal(t, "paper out (task String)", resp.ResultInfo)
}

func TestRunBatchErrorClassification(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		p := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		resp := p.RunBatch(context.Background(), nil)
		assert.Equal(t, model.CodeNoConnection, resp.ResultCode)
		assert.True(t, strings.HasPrefix(resp.ResultInfo, "network error: HTTP 502"), resp.ResultInfo)
	})

	t.Run("mapping", func(t *testing.T) {
		p := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		})
		resp := p.RunBatch(context.Background(), nil)
		assert.Equal(t, model.CodeHandlingError, resp.ResultCode)
		assert.True(t, strings.HasPrefix(resp.ResultInfo, "mapping error: "), resp.ResultInfo)
	})

	t.Run("refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		p := New(Settings{Host: url}, DefaultClientConfig(), nil, zap.NewNop())
		p.client.baseURL = url
		resp := p.RunBatch(context.Background(), nil)
		assert.Equal(t, model.CodeNoConnection, resp.ResultCode)
		assert.True(t, strings.HasPrefix(resp.ResultInfo, "network error: "), resp.ResultInfo)
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "unknown error: boom", Message(errors.New("boom")))
	assert.Equal(t, "network error: refused", Message(fmt.Errorf("%w: refused", ErrNetwork)))
}

func TestGetTaxes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode model.ResponseCode
		wantInfo string
		wantLen  int
	}{
		{"ok", `{"resultCode":0,"resultInfo":"","taxes":[{"id":1,"title":"VAT 20%"},{"id":2,"title":"VAT 10%"}]}`, model.CodeSuccess, "", 2},
		{"remote failure", `{"resultCode":4,"resultInfo":"no device"}`, model.CodeHandlingError, "obtaining taxes failed: no device", 0},
		{"empty", `{"resultCode":0,"taxes":[]}`, model.CodeHandlingError, "taxes empty", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestRelay(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/taxes", r.URL.Path)
				var req model.SettingsRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "blob", req.Settings)
				_, _ = w.Write([]byte(tt.body))
			})
			resp, err := p.GetTaxes(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.ResultCode)
			assert.Equal(t, tt.wantInfo, resp.ResultInfo)
			assert.Len(t, resp.Taxes, tt.wantLen)
		})
	}
}

func TestAuxiliaryOperations(t *testing.T) {
	p := New(DefaultSettings(), DefaultClientConfig(), nil, zap.NewNop())
	ctx := context.Background()

	serial, err := p.GetSerial(ctx)
	require.NoError(t, err)
	assert.Equal(t, "getInfo is not implemented for PrintServer", serial.ResultInfo)
	assert.False(t, serial.IsSuccess())

	state, err := p.GetSessionState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "getSessionState is not implemented for PrintServer", state.ResultInfo)

	shift, err := p.OpenShift(ctx)
	require.NoError(t, err)
	assert.False(t, shift.IsSuccess())

	_, err = p.GetOfdStatus(ctx)
	assert.ErrorIs(t, err, driver.ErrMethodNotSupported)
}

func TestFinishIsTerminal(t *testing.T) {
	p := New(DefaultSettings(), DefaultClientConfig(), nil, zap.NewNop())
	require.NoError(t, p.Open(context.Background()))
	p.Finish(context.Background())
	assert.Equal(t, model.StatusFinished, p.Status())

	unopened := New(DefaultSettings(), DefaultClientConfig(), nil, zap.NewNop())
	unopened.Finish(context.Background())
	assert.Equal(t, model.StatusFinished, unopened.Status())
}

func TestClientCatalogCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/supportModels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.FormValue("typeId"))
		_, _ = w.Write([]byte(`{"resultCode":0,"models":[{"modelId":"m1","modelName":"FPrint","supportDriverCodes":["atol"]}],"drivers":[{"driverId":"atol","driverName":"Atol"}]}`))
	})
	mux.HandleFunc("/deviceSetting", func(w http.ResponseWriter, r *http.Request) {
		if blob := r.FormValue("settingZip"); blob != "" {
			assert.Equal(t, "a+b/c=", blob)
			_, _ = w.Write([]byte(`{"resultCode":0,"driverId":"from-blob"}`))
			return
		}
		_, _ = w.Write([]byte(`{"resultCode":0,"driverId":"` + r.FormValue("driverId") + `"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := NewClient(server.URL, DefaultClientConfig(), server.Client(), zap.NewNop())
	ctx := context.Background()

	models, err := c.Models(ctx, 3)
	require.NoError(t, err)
	require.Len(t, models.Models, 1)
	assert.Equal(t, []string{"atol"}, models.Models[0].SupportDriverCodes)

	settings, err := c.DeviceSettings(ctx, "posiflex")
	require.NoError(t, err)
	assert.Equal(t, "posiflex", settings.DriverID)

	settings, err = c.ExtractDeviceSettings(ctx, "a+b/c=")
	require.NoError(t, err)
	assert.Equal(t, "from-blob", settings.DriverID)
}
