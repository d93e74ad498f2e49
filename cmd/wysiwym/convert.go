package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/markdown"
	"github.com/spf13/cobra"
)

// Input and output formats of the convert command.
const (
	formatMarkdown = "markdown"
	formatDocModel = "docmodel"
	formatEditor   = "editor"
	formatHTML     = "html"
	formatANSI     = "ansi"
	formatDebug    = "debug"
)

var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a document between Markdown, the doc model and the editor tree",
	Long: `Reads a document from file, or stdin when no file is given, and writes it
in another format. Every conversion goes through the doc model and the editor
tree, so invalid documents are reported whatever the formats.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		conv, err := newConverter(logger)
		if err != nil {
			return err
		}

		var input []byte
		if len(args) == 1 {
			input, err = os.ReadFile(args[0])
		} else {
			input, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		out, err := convert(conv, input, from, to, renderANSI)
		if err != nil {
			logger.Debug("conversion failed", "from", from, "to", to, "error", err)
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("from", formatMarkdown, "Input format: markdown, docmodel, editor or html")
	convertCmd.Flags().String("to", formatEditor, "Output format: docmodel, editor, html, markdown, ansi or debug")
}

func renderANSI(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func convert(conv *editor.Converter, input []byte, from, to string, ansi func(string) (string, error)) (string, error) {
	doc, err := readDocument(conv, input, from)
	if err != nil {
		return "", err
	}
	if doc, err = conv.Normalize(doc); err != nil {
		return "", err
	}
	tree, err := conv.ToEditorTree(doc)
	if err != nil {
		return "", err
	}

	switch to {
	case formatDocModel:
		return indentJSON(doc)
	case formatEditor:
		return indentJSON(tree)
	case formatHTML:
		out, err := conv.RenderHTML(tree)
		return out + "\n", err
	case formatMarkdown:
		return markdown.DefaultSerializer.Serialize(tree) + "\n", nil
	case formatANSI:
		return ansi(markdown.DefaultSerializer.Serialize(tree))
	case formatDebug:
		return docmodel.Debug(doc, 0), nil
	}
	return "", fmt.Errorf("unknown output format %q", to)
}

func readDocument(conv *editor.Converter, input []byte, from string) (docmodel.Node, error) {
	switch from {
	case formatMarkdown:
		return markdown.Parse(input)
	case formatDocModel:
		return docmodel.Parse(input)
	case formatEditor:
		tree, err := conv.ParseEditorJSON(input)
		if err != nil {
			return docmodel.Node{}, err
		}
		return conv.ToDocTree(tree)
	case formatHTML:
		tree, err := conv.ParseHTML(string(input))
		if err != nil {
			return docmodel.Node{}, err
		}
		return conv.ToDocTree(tree)
	}
	return docmodel.Node{}, fmt.Errorf("unknown input format %q", from)
}

func indentJSON(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
