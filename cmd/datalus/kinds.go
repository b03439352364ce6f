// Kinds commands for the datalus CLI.
package main

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// kindsFile is the YAML layout read by "kinds import".
type kindsFile struct {
	Kinds []string `yaml:"kinds"`
}

// kindEntry is one row of the kind lookup relation in JSON output.
type kindEntry struct {
	KindID int64  `json:"kind_id"`
	Class  string `json:"class"`
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Manage the component kind lookup relation",
}

var kindsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered component kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		kinds, err := backend.Kinds()
		if err != nil {
			return fmt.Errorf("list kinds: %w", err)
		}
		entries := make([]kindEntry, 0, len(kinds))
		for id, class := range kinds {
			entries = append(entries, kindEntry{KindID: id, Class: class})
		}
		slices.SortFunc(entries, func(a, b kindEntry) int {
			return cmp.Compare(a.KindID, b.KindID)
		})

		if flagJSON {
			return printJSON(entries)
		}
		out := cmd.OutOrStdout()
		for _, k := range entries {
			fmt.Fprintf(out, "%d\t%s\n", k.KindID, k.Class)
		}
		return nil
	},
}

var kindsAddCmd = &cobra.Command{
	Use:   "add <class>...",
	Short: "Register component classes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return registerKinds(cmd, args)
	},
}

var kindsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Register the component classes listed in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classes, err := readKindsFile(args[0])
		if err != nil {
			return err
		}
		return registerKinds(cmd, classes)
	},
}

func init() {
	kindsCmd.AddCommand(kindsListCmd)
	kindsCmd.AddCommand(kindsAddCmd)
	kindsCmd.AddCommand(kindsImportCmd)
}

// readKindsFile parses a YAML document of the form "kinds: [class, ...]".
func readKindsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, userErrorf("read %s: %w", path, err)
	}
	var f kindsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, userErrorf("parse %s: %w", path, err)
	}
	if len(f.Kinds) == 0 {
		return nil, userErrorf("%s lists no kinds", path)
	}
	return f.Kinds, nil
}

func registerKinds(cmd *cobra.Command, classes []string) error {
	for _, class := range classes {
		if strings.TrimSpace(class) == "" {
			return userErrorf("component class must not be empty")
		}
	}

	backend, _, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	entries := make([]kindEntry, 0, len(classes))
	for _, class := range classes {
		id, err := backend.RegisterKind(class)
		if err != nil {
			return fmt.Errorf("register %s: %w", class, err)
		}
		entries = append(entries, kindEntry{KindID: id, Class: strings.TrimSpace(class)})
	}

	if flagJSON {
		return printJSON(entries)
	}
	out := cmd.OutOrStdout()
	for _, k := range entries {
		fmt.Fprintf(out, "%d\t%s\n", k.KindID, k.Class)
	}
	return nil
}
