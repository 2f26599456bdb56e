// Package validate checks generated dashboards and rule files for PromQL
// syntax errors and references to metrics the service does not export.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/deal-scorer/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings are
// reported but do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// histogramSuffixes are the series a histogram exports beyond its base name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses a single PromQL expression and checks every selector against
// known. When requireJob is set, raw metric selectors must carry a job
// matcher so a shared Prometheus does not mix in other services.
func Expr(where, expr string, known map[string]bool, requireJob bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: parsing %q: %v", where, expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !knownMetric(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, vs.Name))
			return nil
		}
		if requireJob && !strings.Contains(vs.Name, ":") && vs.Name != "up" && !hasJobMatcher(vs) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s has no job matcher", where, vs.Name))
		}
		return nil
	})

	return res
}

func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

func hasJobMatcher(vs *parser.VectorSelector) bool {
	for _, m := range vs.LabelMatchers {
		if m.Name == "job" {
			return true
		}
	}
	return false
}

// Dashboard validates every query expression in a built dashboard.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	exprs, err := dashboardExprs(d)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	if len(exprs) == 0 {
		res.Errors = append(res.Errors, "dashboard has no query expressions")
		return res
	}

	for i, expr := range exprs {
		res.merge(Expr(fmt.Sprintf("query %d", i+1), expr, known, true))
	}
	return res
}

// Rules validates recording and alert rule expressions. Recording rule
// names are treated as known for the expressions that follow them.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			if name == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("group %s: rule without record or alert name", g.Name))
				continue
			}
			res.merge(Expr(g.Name+"/"+name, r.Expr, known, false))
			if r.Record != "" && !known[r.Record] {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"group %s: recording rule %s is not in the known metric set", g.Name, r.Record,
				))
			}
		}
	}
	return res
}

// dashboardExprs walks the dashboard JSON and returns every "expr" string,
// sorted for stable output. Walking the encoded form keeps this independent
// of the panel types used.
func dashboardExprs(d dashboard.Dashboard) ([]string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding dashboard: %w", err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decoding dashboard: %w", err)
	}

	var exprs []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				if s, ok := child.(string); ok && k == "expr" {
					exprs = append(exprs, s)
					continue
				}
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(tree)

	sort.Strings(exprs)
	return exprs, nil
}
