// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/service"
)

var (
	// OperationPerformed is set once a command started doing real work.
	OperationPerformed bool
	// OperationPerformedSuccessfully is set when that work finished without error.
	OperationPerformedSuccessfully bool
)

// ErrConfigRequired is returned by the build command when no configuration file is given.
var ErrConfigRequired = errors.New("cli: a configuration file is required")

// options holds the persistent flags shared by every command.
type options struct {
	log            logger.Logger
	namingPolicy   string
	maxInput       int64
	cacheThreshold int
	verbose        bool
}

func (o *options) policy() (model.NamingPolicy, error) {
	return model.ParseNamingPolicy(o.namingPolicy)
}

func (o *options) newService() (*service.Service, error) {
	return service.New(
		service.WithLogger(o.log),
		service.WithBuilderOptions(
			builder.WithMaxInput(o.maxInput),
			builder.WithCacheOptions(stream.WithThreshold(o.cacheThreshold)),
		),
	)
}

// observer logs build steps when --verbose is set.
func (o *options) observer() builder.Observer {
	if !o.verbose {
		return nil
	}
	return func(e builder.Event) {
		o.log.Printf("%s %s: %s", e.BuildID, e.Kind, e.Step)
	}
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewRootCommand(version, log).ExecuteContext(ctx)
}

// NewRootCommand returns the root command with every subcommand attached.
// Command output goes to the command's out writer; progress and errors are
// logged through log.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.NewCLILogger()
	}
	opts := &options{log: log}

	root := &cobra.Command{
		Use:           posix.GetExecutableName(),
		Short:         "Build keys, certificate requests, certificates and revocation lists",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.namingPolicy, "naming-policy", string(model.CamelCase),
		"property naming of configuration documents: camelCase, PascalCase, kebab-case or snake_case")
	flags.Int64Var(&opts.maxInput, "max-input", builder.DefaultMaxInput, "largest input payload read, in bytes")
	flags.IntVar(&opts.cacheThreshold, "cache-threshold", stream.DefaultCacheThreshold,
		"payload size above which envelope input is spooled to a temporary file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every build step")

	root.AddCommand(
		newBuildCommand(opts),
		newPrintCommand(opts),
		newEncryptCommand(opts),
		newDecryptCommand(opts),
		newSchemaCommand(),
	)
	return root
}

func newBuildCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build CONFIG_FILE",
		Short: "Build the artifacts described by a JSON or YAML configuration",
		Long: "Build reads a configuration, writes every artifact to the file named by its slot\n" +
			"and prints the populated configuration.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrConfigRequired
			}
			policy, err := opts.policy()
			if err != nil {
				return err
			}
			doc, err := model.ReadDocument(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.newService()
			if err != nil {
				return err
			}

			OperationPerformed = true
			data, err := svc.BuildJSON(cmd.Context(), doc, policy, opts.observer())
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, append(data, '\n')); err != nil {
				return err
			}
			OperationPerformedSuccessfully = true
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the populated configuration to FILE (default: stdout)")
	return cmd
}

func newPrintCommand(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "print FILE...",
		Short: "Describe certificates, requests, revocation lists and keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := &model.TransformSpec{Encoding: model.EncodingText}
			for _, name := range args {
				slot := &model.FileSlot{FileName: name}
				if password != "" {
					slot.Password = &password
				}
				spec.Inputs = append(spec.Inputs, slot)
			}
			svc, err := opts.newService()
			if err != nil {
				return err
			}

			OperationPerformed = true
			out, err := svc.Build(cmd.Context(), &model.Config{Mode: model.ModeTransform, Transform: spec}, opts.observer())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, slot := range out.TransformFiles {
				if len(args) > 1 {
					fmt.Fprintf(w, "# %s\n\n", args[i])
				}
				if _, err := w.Write(slot.Data); err != nil {
					return err
				}
			}
			OperationPerformedSuccessfully = true
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password of protected inputs")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of camelCase configuration documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(model.Schema())
			return err
		},
	}
}

// writeOutput writes data to the named file, or to w when name is empty.
func writeOutput(w io.Writer, name string, data []byte) error {
	if name == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
