package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/remote"
	"github.com/inkwell-dev/inkwell/internal/transform"
	"github.com/inkwell-dev/inkwell/internal/ui"
)

var (
	transformInstruction string
	transformLanguage    string
	transformModel       string
	transformDirect      bool
	transformPlain       bool
)

var transformCmd = &cobra.Command{
	Use:   "transform <action> [text]",
	Short: "Run a text action outside the editor",
	Long: `Run one of the editor's AI text actions on a piece of text.

Actions: improve, explain, expand, summarize, translate, rewrite.
The text is read from stdin when not given as an argument.`,
	Example: `  # Summarize a file
  inkwell transform summarize < notes.md

  # Translate a sentence
  inkwell transform translate "Bonjour tout le monde" --language English

  # Rewrite with an instruction, printing only the result
  inkwell transform rewrite "we shipped it" --instruction "more formal" --plain`,
	Args: cobra.RangeArgs(1, 2),
	ValidArgs: func() []string {
		var names []string
		for _, a := range transform.Actions() {
			names = append(names, a.String())
		}
		return names
	}(),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().StringVar(&transformInstruction, "instruction", "", "Extra instruction for the model")
	transformCmd.Flags().StringVar(&transformLanguage, "language", "", "Target language for translate")
	transformCmd.Flags().StringVar(&transformModel, "model", "", "Model id (default: assistant.model)")
	transformCmd.Flags().BoolVar(&transformDirect, "direct", false, "Call the OpenAI API directly instead of the server")
	transformCmd.Flags().BoolVar(&transformPlain, "plain", false, "Print only the processed text")
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	action, err := transform.ParseActionType(args[0])
	if err != nil {
		return err
	}

	var text string
	if len(args) == 2 {
		text = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	base := ""
	if !offline && !transformDirect {
		if base, err = resolveServer(ctx, reg); err != nil {
			return err
		}
	}
	service, err := buildService(reg, base, transformDirect)
	if err != nil {
		return err
	}

	language := transformLanguage
	if language == "" {
		language = reg.Assistant.Language
	}
	req := transform.Request{
		AgentID:     reg.Services.AgentID,
		Text:        text,
		Action:      action,
		Instruction: transformInstruction,
		Language:    language,
	}
	if transformModel != "" {
		req.Model = transform.ModelHint{Provider: reg.Assistant.Provider, ModelID: transformModel}
	}

	ctx, cancel := context.WithTimeout(ctx, reg.Editor.TransformTimeout())
	defer cancel()

	p := ui.NewPrinter(cmd.OutOrStdout())
	if !transformPlain {
		p.PrintHeader(action.Label(), "inkwell transform "+action.String(),
			ui.Param{Key: "Service", Value: serviceLabel(base, transformDirect)},
			ui.Param{Key: "Length", Value: fmt.Sprintf("%d chars", len([]rune(text)))},
		)
	}

	start := time.Now()
	res, err := service.Transform(ctx, req)
	if err != nil {
		if transformPlain {
			return err
		}
		p.PrintError(action.Label()+" failed", err, ui.Troubleshooting(remote.GetTroubleshootingHint(err)))
		return fmt.Errorf("transform failed: %s", remote.ShortMessage(err))
	}

	if transformPlain {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), res.ProcessedText)
		return err
	}
	p.PrintTextBox("Result", res.ProcessedText)
	if res.Explanation != "" {
		p.PrintTextBox("Explanation", res.Explanation)
	}
	p.PrintSuccess(action.Label()+" complete",
		ui.Param{Key: "Duration", Value: time.Since(start).Round(time.Millisecond).String()},
	)
	return nil
}

func serviceLabel(base string, direct bool) string {
	switch {
	case offline:
		return "offline (canned results)"
	case direct:
		return "OpenAI API"
	default:
		return base
	}
}

