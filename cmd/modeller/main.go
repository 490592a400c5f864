// Command modeller is a CLI tool for working with statechart designs.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/themodeller/modeller/pkg/diagfile"
	"github.com/themodeller/modeller/pkg/diagram"
)

const usage = `modeller - statechart design toolkit

Usage:
  modeller <command> [options]

Commands:
  convert    Convert between formats (json, smdz)
  export     Export a design (html, svg, png)
  info       Show design information
  validate   Validate a design file
  serve      Run the design HTTP service

Examples:
  modeller convert design.json -o design.smdz
  modeller convert design.smdz -o design.json --pretty
  modeller export design.json -o design.html
  modeller export design.json -o design.png
  modeller info design.smdz
  modeller validate design.json
  modeller serve

Use "modeller <command> -h" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "convert":
		cmdConvert(args)
	case "export":
		cmdExport(args)
	case "info":
		cmdInfo(args)
	case "validate":
		cmdValidate(args)
	case "serve":
		cmdServe(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func cmdConvert(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeller convert <input> [-o output] [--pretty] [--name name]")
		os.Exit(1)
	}

	input := args[0]
	var output, name string
	pretty := false

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		case "--pretty":
			pretty = true
		case "--name":
			if i+1 < len(args) {
				name = args[i+1]
				i++
			}
		}
	}

	d, meta, err := loadDesign(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}

	if output == "" {
		ext := filepath.Ext(input)
		base := strings.TrimSuffix(input, ext)
		switch ext {
		case ".json":
			output = base + ".smdz"
		default:
			output = base + ".json"
		}
	}

	switch filepath.Ext(output) {
	case ".smdz":
		m := diagfile.DesignMeta{Name: name}
		if meta != nil {
			m = *meta
			if name != "" {
				m.Name = name
			}
		}
		err = diagfile.WriteDesignFile(output, d, m)
	case ".json":
		var data []byte
		data, err = diagfile.ToDocumentJSON(d, pretty)
		if err == nil {
			err = os.WriteFile(output, data, 0644)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format: %s\n", filepath.Ext(output))
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}

	fmt.Printf("Written: %s\n", output)
}

func cmdExport(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeller export <input> [-o output] [--title title]")
		os.Exit(1)
	}

	input := args[0]
	var output, title string

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				output = args[i+1]
				i++
			}
		case "--title":
			if i+1 < len(args) {
				title = args[i+1]
				i++
			}
		}
	}

	if output == "" {
		ext := filepath.Ext(input)
		output = strings.TrimSuffix(input, ext) + ".html"
	}

	data, err := loadDocumentJSON(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}

	switch filepath.Ext(output) {
	case ".html":
		opts := diagfile.DefaultHTMLOptions()
		if title != "" {
			opts.Title = title
		}
		var page string
		page, err = diagfile.GenerateHTML(data, opts)
		if err == nil {
			err = os.WriteFile(output, []byte(page), 0644)
		}
	case ".svg":
		var svg string
		svg, err = diagfile.GenerateSVG(data, diagfile.DefaultSVGOptions())
		if err == nil {
			err = os.WriteFile(output, []byte(svg), 0644)
		}
	case ".png":
		var f *os.File
		f, err = os.Create(output)
		if err == nil {
			err = diagfile.RenderPNG(data, f, diagfile.DefaultPNGOptions())
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown export format: %s\n", filepath.Ext(output))
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting %s: %v\n", output, err)
		os.Exit(1)
	}

	fmt.Printf("Written: %s\n", output)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeller info <input>")
		os.Exit(1)
	}

	input := args[0]
	d, meta, err := loadDesign(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		os.Exit(1)
	}

	if meta != nil {
		if meta.Name != "" {
			fmt.Printf("Name:           %s\n", meta.Name)
		}
		if meta.Description != "" {
			fmt.Printf("Description:    %s\n", meta.Description)
		}
	}

	machines, states, containers, initials, depth := 0, 0, 0, 0, 0
	for _, n := range d.Nodes() {
		switch n.Type {
		case diagram.TypeStateMachine:
			machines++
		case diagram.TypeState:
			states++
		}
		if n.IsContainer {
			containers++
		}
		if n.IsInitial {
			initials++
		}
		nd := 0
		for p := n.Parent(); p != nil; p = p.Parent() {
			nd++
		}
		if nd > depth {
			depth = nd
		}
	}

	fmt.Printf("Nodes:          %d\n", len(d.Nodes()))
	fmt.Printf("Transitions:    %d\n", len(d.Edges()))
	fmt.Printf("State machines: %d\n", machines)
	fmt.Printf("States:         %d\n", states)
	fmt.Printf("Containers:     %d\n", containers)
	fmt.Printf("Initial states: %d\n", initials)
	fmt.Printf("Nesting depth:  %d\n", depth)
}

func cmdValidate(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeller validate <input>")
		os.Exit(1)
	}

	input := args[0]
	d, _, err := loadDesign(input)
	if err != nil {
		var lerr *diagfile.LoadError
		if errors.As(err, &lerr) && len(lerr.Violations) > 0 {
			fmt.Fprintf(os.Stderr, "%s: invalid design\n", input)
			for _, v := range lerr.Violations {
				fmt.Fprintf(os.Stderr, "  %s\n", v)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", input, err)
		}
		os.Exit(1)
	}

	fmt.Printf("%s: valid design with %d nodes, %d transitions\n",
		input, len(d.Nodes()), len(d.Edges()))
}

// loadDesign reads a design from json or smdz, picking by extension.
func loadDesign(path string) (*diagram.Diagram, *diagfile.DesignMeta, error) {
	switch filepath.Ext(path) {
	case ".smdz":
		return diagfile.ReadDesignFile(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		d, err := diagfile.ParseDocument(data)
		return d, nil, err
	}
}

// loadDocumentJSON returns the raw document bytes for the exporters.
func loadDocumentJSON(path string) ([]byte, error) {
	if filepath.Ext(path) != ".smdz" {
		return os.ReadFile(path)
	}
	d, _, err := diagfile.ReadDesignFile(path)
	if err != nil {
		return nil, err
	}
	return diagfile.ToDocumentJSON(d, false)
}
