package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

const configHeader = "# gdsnip configuration. GDSNIP_<KEY> environment variables override these values.\n" +
	"# workers: 0 uses one worker per CPU.\n"

// initCmd implements `gdsnip init`, which writes (or completes) a config
// file. Keys already present in an existing file are kept.
func (a *app) initCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long: `Write a gdsnip config file with every key set. An existing file keeps its
values; missing keys are filled in with defaults. Creates the file if it
does not exist.

path defaults to ./` + defaultConfigFile + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated, err := applyConfig(existing)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			if dryRun {
				_, _ = cmd.OutOrStdout().Write(updated)
				return nil
			}

			if err := os.WriteFile(path, updated, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(a.stderr, "wrote config to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// applyConfig merges defaults under the values of an existing config file
// and renders the result. It is a pure function for easy testing.
func applyConfig(existing []byte) ([]byte, error) {
	cfg := defaultConfig()
	cfg.Workers = 0
	if len(bytes.TrimSpace(existing)) > 0 {
		if err := yaml.Unmarshal(existing, &cfg); err != nil {
			return nil, fmt.Errorf("parsing existing config: %w", err)
		}
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return append([]byte(configHeader), out...), nil
}
