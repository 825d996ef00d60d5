// Command papernav is the operator CLI: it parses exam papers into
// outlines and drives a review session from the terminal.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/papernav/internal/intent"
	"github.com/dgallion1/papernav/internal/paper"
	"github.com/dgallion1/papernav/internal/parser"
)

var CLI struct {
	Inspect InspectCmd `cmd:"" help:"Parse a paper and print its outline"`
	Walk    WalkCmd    `cmd:"" help:"Load a paper and navigate it from stdin"`
}

// InspectCmd parses one file and prints the node sequence.
type InspectCmd struct {
	Path string `arg:"" help:"Paper file to parse" type:"existingfile"`
	JSON bool   `help:"Print the outline as JSON"`
}

func (c *InspectCmd) Run() error {
	outline, err := parseFile(c.Path)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outline)
	}

	fmt.Printf("%s\n", outline.Title)
	fmt.Printf("  %d nodes, %d questions\n", len(outline.Nodes), outline.TotalQuestions)
	for i, n := range outline.Nodes {
		switch n.Kind {
		case paper.KindSection:
			fmt.Printf("%4d  == %s\n", i, n.Data.Label)
		default:
			fmt.Printf("%4d  %s: %s\n", i, n.Data.Label, firstLine(n.Data.Text))
			for _, opt := range n.Data.Options {
				fmt.Printf("        %s) %s\n", opt.Letter, opt.Text)
			}
		}
	}
	return nil
}

// WalkCmd loads a paper and resolves stdin utterances against it.
type WalkCmd struct {
	Path string `arg:"" help:"Paper file to review" type:"existingfile"`
}

func (c *WalkCmd) Run() error {
	outline, err := parseFile(c.Path)
	if err != nil {
		return err
	}
	p, err := outline.Paper()
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d questions. Type a command (\"next\", \"mark question 3\", ...), Ctrl-D to quit.\n",
		outline.Title, outline.TotalQuestions)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		in, err := intent.Parse(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		res, err := p.Resolve(in)
		if err != nil {
			fmt.Println(err)
			continue
		}
		printResult(res)
	}
	fmt.Println()
	return sc.Err()
}

func printResult(res paper.Result) {
	if res.Message != "" {
		fmt.Println(res.Message)
		return
	}
	if res.Data == nil {
		return
	}
	fmt.Printf("[%d] %s\n", res.Index, res.Data.Label)
	if res.Data.Text != "" && res.Data.Text != res.Data.Label {
		fmt.Println(res.Data.Text)
	}
	for _, opt := range res.Data.Options {
		fmt.Printf("  %s) %s\n", opt.Letter, opt.Text)
	}
}

func parseFile(path string) (*paper.Outline, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = true
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("papernav"),
		kong.Description("Exam paper navigation - parse papers and walk them with relative commands"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
