package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/structa/fieldwise/internal/config"
	"github.com/structa/fieldwise/internal/extract"
	"github.com/structa/fieldwise/internal/fingerprint"
	"github.com/structa/fieldwise/internal/template"
)

var (
	templatePath = flag.String("template", "", "Path to a template definition file (YAML or JSON)")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	workers      = flag.Int("workers", 0, "Extraction workers for multiple documents (0 for one per core)")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if *templatePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required\n\n")
		printUsage()
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: document path required\n\n")
		printUsage()
		os.Exit(1)
	}

	checks := template.NewCheckRegistry()
	tpl, err := template.LoadFile(*templatePath, checks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading template: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Template: %s (%d fields)\n\n", tpl.Name, len(tpl.Fields))
	}

	items := runExtraction(tpl, checks, flag.Args())

	if err := outputResults(items); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}

	for _, item := range items {
		if item.Err != nil || (item.Result != nil && !item.Result.Succeeded()) {
			os.Exit(1)
		}
	}
}

func runExtraction(tpl *template.Template, checks *template.CheckRegistry, paths []string) []extract.BatchItem {
	extractor := fingerprint.NewExtractor(config.DefaultMaxFileSize)
	engine := extract.NewEngine(checks)

	items := make([]extract.BatchItem, len(paths))
	fps := make([]*fingerprint.Fingerprint, 0, len(paths))
	for i, path := range paths {
		fp, err := extractor.Extract(path)
		if err != nil {
			items[i] = extract.BatchItem{Source: path, Err: err}
			continue
		}
		fp.SourceTag = path
		fps = append(fps, fp)
	}

	extracted := engine.ExtractBatch(context.Background(), tpl, fps, *workers)

	j := 0
	for i := range items {
		if items[i].Err != nil {
			continue
		}
		items[i] = extracted[j]
		j++
	}
	return items
}

func outputResults(items []extract.BatchItem) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(items)
	case "text":
		outputText(items)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(items []extract.BatchItem) {
	for i, item := range items {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Document: %s\n", item.Source)

		if item.Err != nil {
			fmt.Printf("  Error: %v\n", item.Err)
			continue
		}

		result := item.Result
		fmt.Printf("  Overall confidence: %.1f%%\n", result.OverallConfidence*100)
		if *verbose {
			fmt.Printf("  Elapsed: %s\n", result.Elapsed)
		}

		for _, f := range result.Fields {
			if f.Missing {
				fmt.Printf("  %s: <missing>\n", f.Name)
				continue
			}
			line := fmt.Sprintf("  %s: %s", f.Name, f.Value)
			if *verbose {
				line += fmt.Sprintf(" (%.1f%%, %s", f.Confidence*100, f.Method)
				if f.UsedFallback {
					line += ", fallback"
				}
				if f.UsedDefault {
					line += ", default"
				}
				line += ")"
			}
			fmt.Println(line)
		}

		for _, w := range result.Warnings {
			fmt.Printf("  Warning: %s\n", w)
		}
		for _, e := range result.Errors {
			fmt.Printf("  Error: %s\n", e)
		}
	}
}

func printHelp() {
	fmt.Println("Fieldwise Extract - apply an extraction template to documents")
	fmt.Println()
	fmt.Println("Reads a template definition file and extracts its fields from one or")
	fmt.Println("more documents, without needing a running server or a template store.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template      Template definition file (YAML or JSON, required)")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -workers       Workers for multi-document extraction (0 for one per core)")
	fmt.Println("  -verbose       Enable verbose output")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  fieldwise-extract -template incident.yaml report.pdf")
	fmt.Println("  fieldwise-extract -template invoice.yaml -format json invoices/*.pdf")
	fmt.Println("  fieldwise-extract -template sheet.yaml -workers 4 data/*.xlsx")
	fmt.Println()
	fmt.Println("SUPPORTED DOCUMENT TYPES:")
	fmt.Println("  .pdf   PDF documents (text layer with positions and metadata)")
	fmt.Println("  .xlsx  Excel workbooks (cells addressed as zones)")
	fmt.Println("  .txt   Plain text files")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  fieldwise-extract [OPTIONS] <document> [document...]")
}
