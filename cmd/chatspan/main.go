// Package main provides the chatspan CLI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/chatspan-ml/chatspan"
	"github.com/chatspan-ml/chatspan/conversation"
	"github.com/chatspan-ml/chatspan/registry"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("chatspan %s\n", version)

	case "templates":
		for _, name := range registry.Names() {
			fmt.Println(name)
		}

	case "render":
		if err := render(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("chatspan - conversation rendering and loss-mask extraction")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version      Show version")
	fmt.Println("  templates    List built-in templates")
	fmt.Println("  render       Render a JSON conversation from stdin")
}

// render reads a JSON message list from stdin and prints the rendered text,
// optionally annotating the generation spans.
func render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	name := fs.String("template", "qwen2_5", "template name")
	genPrompt := fs.Bool("generation-prompt", false, "append the assistant turn opener")
	showSpans := fs.Bool("spans", false, "print generation spans after the text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var messages []conversation.Message
	if err := json.NewDecoder(os.Stdin).Decode(&messages); err != nil {
		return fmt.Errorf("reading messages: %w", err)
	}

	out, err := chatspan.Apply(*name, messages, nil, conversation.RenderOptions{
		AddGenerationPrompt: *genPrompt,
	})
	if err != nil {
		return err
	}

	fmt.Print(out.Text)
	if *showSpans {
		fmt.Println()
		for _, s := range out.Spans {
			fmt.Printf("[%d:%d] %q\n", s.Start, s.End, out.Text[s.Start:s.End])
		}
	}
	return nil
}
