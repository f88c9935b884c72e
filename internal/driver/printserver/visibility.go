package printserver

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/Softbalance/equipment/internal/model"
)

// Visible reports whether a setting presenter (BoolSetting, StringSetting
// or ListSetting) should be shown for values. A dependency matches when
// every setting it names holds one of its values; a matched dependency
// shows the setting iff visible, an unmatched one iff !visible. The setting
// is hidden as soon as one dependency hides it.
func Visible(setting any, values model.SettingsValues) bool {
	switch s := setting.(type) {
	case model.BoolSetting:
		return visible(s.Dependencies, values)
	case *model.BoolSetting:
		return visible(s.Dependencies, values)
	case model.StringSetting:
		return visible(s.Dependencies, values)
	case *model.StringSetting:
		return visible(s.Dependencies, values)
	case model.ListSetting:
		return visible(s.Dependencies, values)
	case *model.ListSetting:
		return visible(s.Dependencies, values)
	default:
		return true
	}
}

func visible[T any](deps []model.Dependency[T], values model.SettingsValues) bool {
	for _, dep := range deps {
		if matches(dep, values) != bool(dep.Visible) {
			return false
		}
	}
	return true
}

// matches compares values by their text form, so a dependency may name a
// setting of another kind than its owner.
func matches[T any](dep model.Dependency[T], values model.SettingsValues) bool {
	if len(dep.SettingsIDs) == 0 {
		return false
	}
	for _, id := range dep.SettingsIDs {
		v, ok := valueOf(values, id)
		if !ok || !slices.ContainsFunc(dep.Values, func(want T) bool { return text(want) == v }) {
			return false
		}
	}
	return true
}

func valueOf(values model.SettingsValues, id string) (string, bool) {
	for _, v := range values.BoolValues {
		if v.ID == id {
			return text(v.Value), true
		}
	}
	for _, v := range values.StringValues {
		if v.ID == id {
			return v.Value, true
		}
	}
	for _, v := range values.ListValues {
		if v.ID == id {
			return strconv.Itoa(v.Value), true
		}
	}
	return "", false
}

func text(v any) string {
	switch t := v.(type) {
	case model.Bool:
		return strconv.FormatBool(bool(t))
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// CurrentValues collects the values carried by the presenters of resp.
func CurrentValues(resp model.SettingsResponse) model.SettingsValues {
	values := model.SettingsValues{DriverID: resp.DriverID, ModelID: resp.ModelID}
	for _, s := range resp.BoolSettings {
		if s.Value != nil {
			values.BoolValues = append(values.BoolValues, model.TypedValue[model.Bool]{ID: s.ID, Value: *s.Value})
		}
	}
	for _, s := range resp.StringSettings {
		if s.Value != nil {
			values.StringValues = append(values.StringValues, model.TypedValue[string]{ID: s.ID, Value: *s.Value})
		}
	}
	for _, s := range resp.ListSettings {
		if s.Value != nil {
			values.ListValues = append(values.ListValues, model.TypedValue[int]{ID: s.ID, Value: *s.Value})
		}
	}
	return values
}
