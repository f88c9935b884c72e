package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/model"
)

func newRelayCmd(g *globals) *cobra.Command {
	var baseURL string
	client := func() *printserver.Client {
		return printserver.NewClient(baseURL, printserver.ClientConfig{
			DialTimeout:     g.cfg.Relay.DialTimeout,
			ResponseTimeout: g.cfg.Relay.ResponseTimeout,
			Timeout:         g.cfg.Relay.Timeout,
		}, nil, g.logger)
	}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Query a print server",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8090", "Print server base URL")

	types := &cobra.Command{
		Use:   "types",
		Short: "List supported device types",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().DeviceTypes(cmd.Context())
			if err != nil {
				return errors.New(printserver.Message(err))
			}
			return printResult(cmd.OutOrStdout(), resp, resp.BaseResponse)
		},
	}

	var typeID int
	models := &cobra.Command{
		Use:   "models",
		Short: "List the models of a device type",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Models(cmd.Context(), typeID)
			if err != nil {
				return errors.New(printserver.Message(err))
			}
			return printResult(cmd.OutOrStdout(), resp, resp.BaseResponse)
		},
	}
	models.Flags().IntVar(&typeID, "type", 1, "Device type id")

	var (
		driverID string
		blob     string
		all      bool
	)
	settings := &cobra.Command{
		Use:   "settings",
		Short: "Show the settings form of a driver or of a compressed blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp model.SettingsResponse
				err  error
			)
			switch {
			case blob != "":
				resp, err = client().ExtractDeviceSettings(cmd.Context(), blob)
			case driverID != "":
				resp, err = client().DeviceSettings(cmd.Context(), driverID)
			default:
				return errors.New("--driver or --zip is required")
			}
			if err != nil {
				return errors.New(printserver.Message(err))
			}
			if !all {
				resp = visibleOnly(resp)
			}
			return printResult(cmd.OutOrStdout(), resp, resp.BaseResponse)
		},
	}
	settings.Flags().StringVar(&driverID, "driver", "", "Driver id")
	settings.Flags().StringVar(&blob, "zip", "", "Compressed settings blob")
	settings.Flags().BoolVar(&all, "all", false, "Include settings hidden by their dependencies")

	var valuesPath string
	zip := &cobra.Command{
		Use:   "zip",
		Short: "Compress filled settings into a blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readValues(valuesPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := client().CompressSettings(cmd.Context(), values)
			if err != nil {
				return errors.New(printserver.Message(err))
			}
			if err := resultError(resp.BaseResponse); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Value)
			return err
		},
	}
	zip.Flags().StringVar(&valuesPath, "file", "-", "JSON file with the filled settings, - for stdin")

	cmd.AddCommand(types, models, settings, zip)
	return cmd
}

func printResult(w io.Writer, v any, base model.BaseResponse) error {
	if err := printJSON(w, v); err != nil {
		return err
	}
	return resultError(base)
}

// visibleOnly drops the settings hidden by the current values.
func visibleOnly(resp model.SettingsResponse) model.SettingsResponse {
	values := printserver.CurrentValues(resp)
	resp.BoolSettings = filterVisible(resp.BoolSettings, values)
	resp.StringSettings = filterVisible(resp.StringSettings, values)
	resp.ListSettings = filterVisible(resp.ListSettings, values)
	return resp
}

func filterVisible[T any](settings []T, values model.SettingsValues) []T {
	var out []T
	for _, s := range settings {
		if printserver.Visible(s, values) {
			out = append(out, s)
		}
	}
	return out
}

func readValues(path string, stdin io.Reader) (model.SettingsValues, error) {
	var values model.SettingsValues
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return values, fmt.Errorf("failed to read settings: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&values); err != nil {
		return values, fmt.Errorf("failed to parse settings: %w", err)
	}
	return values, nil
}
