package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/controller"
	"github.com/forge-instruments/probe-go/pkg/datatype"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// LoadError describes a scenario that could not be loaded.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes and validates a scenario from YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := sc.Validate(); err != nil {
		return nil, &LoadError{Message: "invalid scenario", Cause: err}
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	sc, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return sc, nil
}

// LoadDirectory loads every .yaml and .yml file in dir, in name order.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	var out []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		sc, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Validate checks identifiers, field names, word indices and state names.
func (sc *Scenario) Validate() error {
	if sc.ID == "" {
		return errors.New("scenario ID is required")
	}
	if sc.TicksPerSecond == 0 {
		return errors.New("ticks_per_second is required")
	}
	if _, err := datatype.ParseRounding(sc.Rounding); err != nil {
		return err
	}
	if len(sc.Steps) == 0 {
		return errors.New("scenario must have at least one step")
	}

	for i, st := range sc.Steps {
		for name, v := range st.Write {
			if _, err := config.FieldByName(name); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			if _, err := toInt64(v); err != nil {
				return fmt.Errorf("step %d: %s: %w", i+1, name, err)
			}
		}
		for w := range st.Words {
			if w < 0 || w >= register.NumWords {
				return fmt.Errorf("step %d: %w: %d", i+1, register.ErrWordIndex, w)
			}
		}
		for _, e := range []Expect{st.Expect, st.Always} {
			if e.State == nil {
				continue
			}
			if _, ok := controller.ParseState(strings.ToUpper(*e.State)); !ok {
				return fmt.Errorf("step %d: unknown state %q", i+1, *e.State)
			}
		}
	}
	return nil
}

// toInt64 converts a decoded YAML scalar to a raw field value.
func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		return int64(x), nil
	case float64:
		if x != float64(int64(x)) {
			return 0, fmt.Errorf("value %v is not an integer", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
