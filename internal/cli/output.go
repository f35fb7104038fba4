// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyconv.
//
// go-keyconv is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-keyconv/pkg/encoding/jwk"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintJWK prints a JWK. Text and JSON output are both indented JSON.
func (p *Printer) PrintJWK(key *jwk.JWK) error {
	switch p.format {
	case OutputFormatJSON, OutputFormatText:
		data, err := key.MarshalIndent("", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.writer, string(data))
		return err
	case OutputFormatYAML:
		// Go through JSON so member names match the JWK.
		data, err := key.Marshal()
		if err != nil {
			return err
		}
		var members map[string]any
		if err := json.Unmarshal(data, &members); err != nil {
			return err
		}
		return p.printYAML(members)
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintValue prints a single named result. Text output is the bare value.
func (p *Printer) PrintValue(name string, value any) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{name: value})
	case OutputFormatYAML:
		return p.printYAML(map[string]any{name: value})
	case OutputFormatText:
		_, err := fmt.Fprintln(p.writer, value)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintFields prints several named results. Text output is one
// "name: value" line per field in the given order.
func (p *Printer) PrintFields(names []string, fields map[string]any) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(fields)
	case OutputFormatYAML:
		return p.printYAML(fields)
	case OutputFormatText:
		for _, name := range names {
			if _, err := fmt.Fprintf(p.writer, "%s: %v\n", name, fields[name]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
	case OutputFormatYAML:
		return p.printYAML(map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		_, perr := fmt.Fprintf(p.writer, "Error: %v\n", err)
		return perr
	}
}

// printJSON prints data as indented JSON
func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printYAML prints data as YAML
func (p *Printer) printYAML(data any) error {
	encoder := yaml.NewEncoder(p.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}
