package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-agent/internal/config"
	"github.com/sells-group/lead-agent/internal/store"
)

const defaultConfigFile = "config.yaml"

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the default configuration file",
	Annotations: map[string]string{skipConfig: "true"},
	RunE: func(_ *cobra.Command, _ []string) error {
		path := configPath
		if path == "" {
			path = defaultConfigFile
		}
		if err := writeDefaultConfig(path, configInitForce); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(_ *cobra.Command, _ []string) error {
		return encodeConfig(os.Stdout, cfg)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func encodeConfig(w io.Writer, c *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return eris.Wrap(err, "config: encode yaml")
	}
	return eris.Wrap(enc.Close(), "config: encode yaml")
}

// writeDefaultConfig writes the built-in defaults to path. It refuses to
// replace an existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return eris.Errorf("config: %s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(err, "config: stat %s", path)
		}
	}

	var buf bytes.Buffer
	if err := encodeConfig(&buf, config.Default()); err != nil {
		return err
	}
	return store.WriteFileAtomic(path, buf.Bytes(), 0o644)
}
