package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/onboarding"
	"github.com/elevatebox/elevatebox/internal/store"
	"github.com/elevatebox/elevatebox/internal/tui"
)

type applyOptions struct {
	configPath  string
	answersPath string
}

func newApplyCmd() *cobra.Command {
	var opts applyOptions
	cmd := &cobra.Command{
		Use:   "apply [dir]",
		Short: "Fill in the onboarding wizard in the terminal",
		Long: `Walk through the onboarding wizard of the site in dir with terminal prompts.

When onboarding.collection is configured the completed application is written
to the site's sink; otherwise it is printed as JSON.

--answers reads the responses from a YAML file keyed by field name instead
of prompting.`,
		Example: `  # Interactive
  elevatebox apply ./site

  # Non-interactive
  elevatebox apply ./site --answers answers.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, dirArg(args), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: <dir>/elevatebox.yaml)")
	cmd.Flags().StringVar(&opts.answersPath, "answers", "", "YAML file with scripted answers")
	return cmd
}

func runApply(cmd *cobra.Command, dir string, opts applyOptions) error {
	s, err := loadSite(dir, opts.configPath)
	if err != nil {
		return err
	}

	var driver tui.PromptDriver = tui.NewSurveyDriver()
	if opts.answersPath != "" {
		answers, err := tui.LoadAnswers(opts.answersPath)
		if err != nil {
			return err
		}
		driver = &tui.ScriptedDriver{Answers: answers, Out: cmd.OutOrStdout()}
	}

	var wizardOpts []onboarding.Option
	var storedID string
	collection := s.cfg.Onboarding.Collection
	if collection != "" {
		if err := s.open(); err != nil {
			return err
		}
		defer s.Close()
		wizardOpts = append(wizardOpts, onboarding.WithOnComplete(func(ctx context.Context, sub onboarding.Submission) error {
			id, err := s.sink.Insert(ctx, collection, store.Document(sub.Document()))
			if err != nil {
				return err
			}
			storedID = id
			return nil
		}))
	}
	wizardOpts = append(wizardOpts,
		onboarding.WithStartStep(s.cfg.Onboarding.StartStep),
		onboarding.WithLogger(s.log.Named("onboarding")))

	w, err := onboarding.New(s.wizard, wizardOpts...)
	if err != nil {
		return err
	}

	sub, err := tui.Run(cmd.Context(), w, driver)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
		return err
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if collection != "" {
		s.log.Info("application stored", zap.String("collection", collection), zap.String("id", storedID))
		fmt.Fprintf(out, "Application stored in %s (id %s)\n", collection, storedID)
		return nil
	}

	data, err := json.MarshalIndent(sub.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode application: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
