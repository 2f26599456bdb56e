// Command dashgen generates the Grafana dashboard and Prometheus rule files
// for deal-scorer from Go definitions.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/deal-scorer/tools/dashgen/dashboards"
	"github.com/donaldgifford/deal-scorer/tools/dashgen/rules"
	"github.com/donaldgifford/deal-scorer/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdout, cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// artifact is a generated file relative to the output directory.
type artifact struct {
	path string
	data []byte
}

func run(w io.Writer, cfg Config, validateOnly bool) error {
	artifacts, res, err := generate(cfg)
	if err != nil {
		return err
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if !res.Ok() {
		return fmt.Errorf("validation failed:\n  %s", strings.Join(res.Errors, "\n  "))
	}

	if validateOnly {
		fmt.Fprintln(w, "validation passed")
		return nil
	}

	for _, a := range artifacts {
		path := filepath.Join(cfg.OutputDir, a.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, a.data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(w, "dashgen: wrote %s\n", path)
	}
	return nil
}

// generate builds and validates every enabled artifact.
func generate(cfg Config) ([]artifact, validate.Result, error) {
	var (
		out []artifact
		res validate.Result
	)

	if cfg.DashboardEnabled {
		dash, err := dashboards.BuildOverview().Build()
		if err != nil {
			return nil, res, fmt.Errorf("building overview dashboard: %w", err)
		}
		r := validate.Dashboard(dash, KnownMetrics)
		res.Errors = append(res.Errors, r.Errors...)
		res.Warnings = append(res.Warnings, r.Warnings...)

		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return nil, res, fmt.Errorf("encoding overview dashboard: %w", err)
		}
		out = append(out, artifact{
			path: filepath.Join("grafana", "data", "ds-overview.json"),
			data: append(data, '\n'),
		})
	}

	if cfg.RulesEnabled {
		for _, f := range []struct {
			name string
			cr   rules.PrometheusRule
		}{
			{"ds-recording-rules.yaml", rules.RecordingRules()},
			{"ds-alerts.yaml", rules.AlertRules()},
		} {
			name, cr := f.name, f.cr
			r := validate.Rules(cr, KnownMetrics)
			res.Errors = append(res.Errors, r.Errors...)
			res.Warnings = append(res.Warnings, r.Warnings...)

			data, err := yaml.Marshal(cr)
			if err != nil {
				return nil, res, fmt.Errorf("encoding %s: %w", name, err)
			}
			out = append(out, artifact{
				path: filepath.Join("prometheus", name),
				data: append([]byte(generatedHeader), data...),
			})
		}
	}

	if len(out) == 0 {
		return nil, res, errors.New("nothing to generate")
	}
	return out, res, nil
}
