// Command mexconv converts exam content to exam markup from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"exam-mex-backend/internal/client"
	"exam-mex-backend/internal/config"
	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/examxml"
	"exam-mex-backend/internal/model"
	"exam-mex-backend/internal/service"
	"exam-mex-backend/internal/utils"
)

var stdout io.Writer = os.Stdout

var CLI struct {
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn"`

	Build    BuildCmd    `cmd:"" help:"Build exam markup from an exam JSON file"`
	Allocate AllocateCmd `cmd:"" help:"Stamp answer ids from an exam JSON file onto mastered markup"`
	Convert  ConvertCmd  `cmd:"" help:"Build, master and stamp answer ids using the configured mastering service"`
	Secret   SecretCmd   `cmd:"" help:"Generate a multiple choice shuffle secret"`
}

type BuildCmd struct {
	Exam string `arg:"" help:"Exam JSON file" type:"existingfile"`
	Out  string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *BuildCmd) Run() error {
	exam, err := readExam(c.Exam)
	if err != nil {
		return err
	}
	svc := service.NewExamService(service.NewMasteringService(nil, ""), 1)
	result, err := svc.GenerateXML(context.Background(), exam)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, []byte(result.XML))
}

type AllocateCmd struct {
	Exam     string `arg:"" help:"Exam JSON file" type:"existingfile"`
	Mastered string `arg:"" help:"Mastered exam markup file" type:"existingfile"`
	Out      string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *AllocateCmd) Run() error {
	exam, err := readExam(c.Exam)
	if err != nil {
		return err
	}
	if exam.Content == nil {
		return fmt.Errorf("%s: %w", c.Exam, service.ErrMissingContent)
	}
	mastered, err := os.ReadFile(c.Mastered)
	if err != nil {
		return fmt.Errorf("failed to read mastered markup: %w", err)
	}
	xml, err := examxml.AllocateAnswerIDs(string(mastered), exam.Content)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, []byte(xml))
}

type ConvertCmd struct {
	Exam string `arg:"" help:"Exam JSON file" type:"existingfile"`
	Out  string `short:"o" help:"Output file for the JSON result (default stdout)" type:"path"`
}

func (c *ConvertCmd) Run() error {
	exam, err := readExam(c.Exam)
	if err != nil {
		return err
	}
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	masteringClient := client.NewMasteringClient(cfg.Mastering.BaseURL, cfg.Mastering.Timeout, cfg.Mastering.DumpRequests)
	svc := service.NewExamService(service.NewMasteringService(masteringClient, cfg.Mastering.ShuffleSecret), 1)
	result, err := svc.ConvertToMex(ctx, exam)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return writeOutput(c.Out, out)
}

type SecretCmd struct{}

func (c *SecretCmd) Run() error {
	secret, err := utils.GenerateShuffleSecret()
	if err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	_, err = fmt.Fprintln(stdout, secret)
	return err
}

func readExam(path string) (*model.Exam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exam: %w", err)
	}
	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("failed to parse exam %s: %w", path, err)
	}
	return &exam, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mexconv"),
		kong.Description("Exam content to exam markup conversion"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logger := ctxlog.New(CLI.LogLevel, "text", os.Stderr)
	slog.SetDefault(logger)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
