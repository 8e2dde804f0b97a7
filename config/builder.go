package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/jpalmerr/sitepulse"
)

// BuildOptions converts parsed configuration into SDK options for [sitepulse.New].
//
// Header pairs are emitted in sorted key order so the resulting options are
// deterministic.
func BuildOptions(cfg *Config) []sitepulse.Option {
	opts := []sitepulse.Option{
		sitepulse.WithConcurrency(cfg.Concurrency),
		sitepulse.WithTimeout(cfg.Timeout.Duration()),
		sitepulse.WithMethod(cfg.Method),
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, sitepulse.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return opts
}

// BuildURLs returns the configured raw inputs: the urls list first, then
// every grid expansion in declaration order.
//
// The url_file is not read here; see [ReadURLFile].
func BuildURLs(cfg *Config) ([]string, error) {
	urls := make([]string, 0, len(cfg.URLs))
	urls = append(urls, cfg.URLs...)

	for _, gc := range cfg.Grids {
		gridURLs, err := ExpandGrid(gc)
		if err != nil {
			return nil, err
		}
		urls = append(urls, gridURLs...)
	}

	return urls, nil
}

// ExpandGrid expands a GridConfig into one URL per dimension combination.
//
// Combinations are generated in sorted dimension-key order, with values in
// their declared order, so the same grid always yields the same sequence.
func ExpandGrid(gc GridConfig) ([]string, error) {
	// use missingkey=error to fail fast on missing template variables
	tmpl, err := template.New("url").Option("missingkey=error").Parse(gc.URLTemplate)
	if err != nil {
		return nil, fmt.Errorf("grid (%s): invalid url_template: %w", gc.Name, err)
	}

	combinations := cartesianProduct(gc.Dimensions)

	urls := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, combo); err != nil {
			return nil, fmt.Errorf("grid (%s) with dimensions %v: template execution failed: %w", gc.Name, combo, err)
		}
		urls = append(urls, buf.String())
	}

	return urls, nil
}

// ReadURLFile reads raw inputs from a newline-delimited file.
// See [ParseURLList] for the line rules.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	urls, err := ParseURLList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read url file %s: %w", path, err)
	}
	return urls, nil
}

// ParseURLList reads one raw input per line.
//
// Lines are trimmed; blank lines and lines starting with '#' are skipped.
// Everything else is returned as-is, including lines that are not valid
// URLs: those are reported per input by the checker, not rejected here.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	// long query strings exceed the default 64KB token limit
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// cartesianProduct generates all combinations of dimension values.
func cartesianProduct(dimensions map[string][]string) []map[string]string {
	if len(dimensions) == 0 {
		return nil
	}

	// sort dimension keys for deterministic ordering
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []map[string]string{{}}

	for _, key := range keys {
		values := dimensions[key]
		var newResult []map[string]string

		for _, combo := range result {
			for _, val := range values {
				newCombo := make(map[string]string, len(combo)+1)
				for k, v := range combo {
					newCombo[k] = v
				}
				newCombo[key] = val
				newResult = append(newResult, newCombo)
			}
		}
		result = newResult
	}

	return result
}
