package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sngm3741/podcast-question-gateway/internal/questions"
	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

type app struct {
	gateway    string
	configPath string
	verbose    bool

	logger *zap.Logger
	client *questions.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "podcastq",
		Short:         "Generate and critique podcast interview questions through the gateway",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.gateway, "gateway", "", "gateway base URL (overrides the config file)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.generateCmd(), a.analyzeCmd(), a.subscribeCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	fc, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.gateway != "" {
		fc.Gateway = a.gateway
	}

	a.logger.Debug("using gateway", zap.String("gateway", fc.Gateway), zap.String("model", fc.Model))
	a.client = questions.NewClient(questions.ClientConfig{GatewayURL: fc.Gateway, Options: fc.ModelOptions})
	return nil
}

func (a *app) generateCmd() *cobra.Command {
	var form questions.Form
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate interview questions for a guest",
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Generate = true
			return a.ask(cmd.Context(), cmd.OutOrStdout(), form)
		},
	}
	cmd.Flags().StringVar(&form.Audience, "audience", "", "who listens to the podcast")
	cmd.Flags().StringVar(&form.GuestBio, "guest-bio", "", "short biography of the guest")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		form          questions.Form
		questionsFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Critique and improve a list of interview questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if questionsFile != "" {
				if form.Questions != "" {
					return errors.New("use either --questions or --questions-file")
				}
				raw, err := readQuestions(questionsFile, cmd.InOrStdin())
				if err != nil {
					return err
				}
				form.Questions = raw
			}
			return a.ask(cmd.Context(), cmd.OutOrStdout(), form)
		},
	}
	cmd.Flags().StringVar(&form.Audience, "audience", "", "who listens to the podcast")
	cmd.Flags().StringVar(&form.GuestBio, "guest-bio", "", "short biography of the guest")
	cmd.Flags().StringVar(&form.Questions, "questions", "", "questions to analyze")
	cmd.Flags().StringVar(&questionsFile, "questions-file", "", `file holding the questions ("-" for stdin)`)
	return cmd
}

func (a *app) subscribeCmd() *cobra.Command {
	var in domain.Inbound
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Submit an email to the sheet and mailing list",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.Subscribe(cmd.Context(), in)
			if err != nil {
				return err
			}
			if !result.Success {
				a.logger.Warn("submission failed",
					zap.String("sheets", result.Sheets.Error),
					zap.String("mailchimp", result.Mailchimp.Error))
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email address to subscribe")
	cmd.Flags().StringVar(&in.Name, "name", "", "subscriber name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) ask(ctx context.Context, out io.Writer, form questions.Form) error {
	a.logger.Debug("asking model", zap.String("mode", string(form.Mode())))
	answer, err := a.client.Ask(ctx, form)
	if err != nil {
		return err
	}
	return printJSON(out, answer)
}

func readQuestions(path string, stdin io.Reader) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read questions: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
