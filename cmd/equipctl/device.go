package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/discovery/usb"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/driver/atol"
	"github.com/Softbalance/equipment/internal/driver/drivers"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/model"
)

// deviceFlags select the backend a command talks to.
type deviceFlags struct {
	driver      string
	settings    string
	settingsZip string
	keep        bool
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "", "Backend kind (atol, posiflex, shtrih, printserver)")
	cmd.Flags().StringVar(&f.settings, "settings", "", "Backend settings, or @file to read them from a file")
	cmd.Flags().StringVar(&f.settingsZip, "settings-zip", "", "Compressed settings blob instead of --driver/--settings")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "Do not finish the backend afterwards")
}

// engine builds an engine over a fresh backend.
func (f *deviceFlags) engine(g *globals) (*engine.Engine, error) {
	registry := driver.NewRegistry(g.logger)
	atolDevice, err := atol.Provider(g.cfg.Device.Atol.Provider)
	if err != nil {
		return nil, err
	}
	drivers.RegisterDefaults(registry, drivers.Options{
		AtolDevice: atolDevice,
		Locator:    usb.NewScanner(g.logger, &usb.Config{ScanTimeout: g.cfg.Discovery.ScanTimeout}, nil),
		Settling: &escpos.SettlingPolicy{
			PerText:      g.cfg.Device.Settling.PerText,
			CharsPerStep: g.cfg.Device.Settling.CharsPerStep,
			Cut:          g.cfg.Device.Settling.Cut,
		},
		Relay: printserver.ClientConfig{
			DialTimeout:     g.cfg.Relay.DialTimeout,
			ResponseTimeout: g.cfg.Relay.ResponseTimeout,
			Timeout:         g.cfg.Relay.Timeout,
		},
	})

	kind, settings := model.DriverKind(f.driver), f.settings
	if strings.HasPrefix(settings, "@") {
		raw, err := os.ReadFile(settings[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		settings = string(raw)
	}
	if f.settingsZip != "" {
		kind, settings, err = catalog.New(atol.CatalogDefaults(atolDevice, g.logger)).Resolve(f.settingsZip)
		if err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
	}
	if kind == "" {
		return nil, errors.New("--driver or --settings-zip is required")
	}

	backend, err := registry.Create(kind, settings)
	if err != nil {
		return nil, err
	}
	return engine.New(backend, g.logger), nil
}

// readTasks accepts a bare task array or a request object with taskTable.
func readTasks(path string) ([]model.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err == nil {
		return tasks, nil
	}
	var req model.TasksRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to parse tasks: %w", err)
	}
	return req.Tasks, nil
}

func resultError(resp model.BaseResponse) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("%s: %s", resp.ResultCode, resp.ResultInfo)
}

func newExecuteCmd(g *globals) *cobra.Command {
	var (
		flags     deviceFlags
		tasksPath string
	)

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run a task batch on a device",
		Example: `  equipctl execute --driver posiflex --settings @posiflex.xml --tasks receipt.json
  equipctl execute --settings-zip H4sIAAAA... --tasks receipt.json --keep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := readTasks(tasksPath)
			if err != nil {
				return err
			}
			e, err := flags.engine(g)
			if err != nil {
				return err
			}

			resp := e.Execute(cmd.Context(), tasks, !flags.keep)
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			return resultError(resp.BaseResponse)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&tasksPath, "tasks", "", "JSON file with the task table")
	_ = cmd.MarkFlagRequired("tasks")
	return cmd
}

// auxCmd builds a command around one auxiliary engine operation.
func auxCmd[T any](g *globals, use, short string, call func(e *engine.Engine, cmd *cobra.Command, finish bool) (T, error), base func(T) model.BaseResponse) *cobra.Command {
	var flags deviceFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.engine(g)
			if err != nil {
				return err
			}
			resp, err := call(e, cmd, !flags.keep)
			if perr := printJSON(cmd.OutOrStdout(), resp); perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			return resultError(base(resp))
		},
	}
	flags.register(cmd)
	return cmd
}

func newAuxCmds(g *globals) []*cobra.Command {
	return []*cobra.Command{
		auxCmd(g, "serial", "Read the device serial number",
			func(e *engine.Engine, cmd *cobra.Command, finish bool) (model.SerialResponse, error) {
				return e.GetSerial(cmd.Context(), finish)
			},
			func(r model.SerialResponse) model.BaseResponse { return r.BaseResponse }),
		auxCmd(g, "session-state", "Read the fiscal shift state",
			func(e *engine.Engine, cmd *cobra.Command, finish bool) (model.SessionStateResponse, error) {
				return e.GetSessionState(cmd.Context(), finish)
			},
			func(r model.SessionStateResponse) model.BaseResponse { return r.BaseResponse }),
		auxCmd(g, "open-shift", "Open a fiscal shift",
			func(e *engine.Engine, cmd *cobra.Command, finish bool) (model.OpenShiftResponse, error) {
				return e.OpenShift(cmd.Context(), finish)
			},
			func(r model.OpenShiftResponse) model.BaseResponse { return r.BaseResponse }),
		auxCmd(g, "ofd-status", "Read the fiscal data operator exchange state",
			func(e *engine.Engine, cmd *cobra.Command, finish bool) (model.OfdStatusResponse, error) {
				return e.GetOfdStatus(cmd.Context(), finish)
			},
			func(r model.OfdStatusResponse) model.BaseResponse { return r.BaseResponse }),
		auxCmd(g, "taxes", "Read the device tax table",
			func(e *engine.Engine, cmd *cobra.Command, finish bool) (model.TaxesResponse, error) {
				return e.GetTaxes(cmd.Context(), finish)
			},
			func(r model.TaxesResponse) model.BaseResponse { return r.BaseResponse }),
	}
}
