package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-passage/passage/config"
)

const templateHeader = `# Passage configuration.
#
# app_id and api_key are found in the Passage console under Settings.
# Every key can be overridden with a PASSAGE_<KEY> environment variable,
# e.g. PASSAGE_API_KEY.
`

func newPublishCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write a passage.yaml template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := publish(output, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published! You can customize the configuration by editing %q.\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", config.FileName+".yaml", "file to write")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func publish(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}
