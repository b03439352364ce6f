// Entity commands for the datalus CLI.
package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/datalus/pkg/datalus"
	"github.com/mesh-intelligence/datalus/pkg/types"
)

const (
	selectEntity = `SELECT entity_id FROM entities WHERE entity_id = ?`

	selectEntityKinds = `SELECT ec.kind_id, ck.class
FROM entity_components ec
LEFT JOIN component_kinds ck ON ck.kind_id = ec.kind_id
WHERE ec.entity_id = ?
ORDER BY ec.kind_id`
)

// componentView is one component of an entity in show output.
type componentView struct {
	KindID int64          `json:"kind_id"`
	Class  string         `json:"class"`
	Table  string         `json:"table"`
	Row    map[string]any `json:"row,omitempty"`
}

// entityView is the show output for one entity.
type entityView struct {
	EntityID   int64           `json:"entity_id"`
	Components []componentView `json:"components"`
}

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Inspect and create entities",
}

var entityNextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Print the id the next saved entity will receive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		id, err := backend.NextEntityID()
		if err != nil {
			return fmt.Errorf("next entity id: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var entityCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save a new entity without components",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, _, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		manager := datalus.NewManager(newRuntime(backend))
		e := manager.Create()
		if err := e.SaveData(false); err != nil {
			return fmt.Errorf("save entity: %w", err)
		}

		if flagJSON {
			return printJSON(entityView{EntityID: e.ID(), Components: []componentView{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), e.ID())
		return nil
	},
}

var entityShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an entity's components and their rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return userErrorf("invalid entity id %q", args[0])
		}

		backend, _, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Detach()

		view, err := showEntity(backend, id)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(view)
		}
		printEntityView(cmd, view)
		return nil
	},
}

func init() {
	entityCmd.AddCommand(entityNextIDCmd)
	entityCmd.AddCommand(entityCreateCmd)
	entityCmd.AddCommand(entityShowCmd)
}

// showEntity reads the header, membership and component rows of entity id.
// Components whose class is missing from the kind relation are listed
// without a row.
func showEntity(store types.Store, id int64) (*entityView, error) {
	header, err := store.Query(selectEntity, id)
	if err != nil {
		return nil, fmt.Errorf("load entity %d: %w", id, err)
	}
	if header.Len() == 0 {
		return nil, userErrorf("entity %d not found", id)
	}

	members, err := store.Query(selectEntityKinds, id)
	if err != nil {
		return nil, fmt.Errorf("load components of %d: %w", id, err)
	}

	view := &entityView{EntityID: id, Components: []componentView{}}
	for _, m := range members.Rows() {
		cv := componentView{
			KindID: cast.ToInt64(m.Get(types.KindIDColumn)),
			Class:  cast.ToString(m.Get(types.ClassColumn)),
		}
		if cv.Class != "" {
			_, cv.Table = datalus.TableName(cv.Class)
			rows, err := store.Query("SELECT * FROM "+quoteIdent(cv.Table)+" WHERE entity_id = ?", id)
			if err != nil {
				return nil, fmt.Errorf("load %s of %d: %w", cv.Table, id, err)
			}
			if rows.Len() > 0 {
				cv.Row = rows.Rows()[0].Values()
			}
		}
		view.Components = append(view.Components, cv)
	}
	return view, nil
}

func printEntityView(cmd *cobra.Command, view *entityView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "entity %d\n", view.EntityID)
	for _, c := range view.Components {
		if c.Class == "" {
			fmt.Fprintf(out, "  kind %d: unknown class\n", c.KindID)
			continue
		}
		fmt.Fprintf(out, "  %s (%s)\n", c.Class, c.Table)
		columns := make([]string, 0, len(c.Row))
		for col := range c.Row {
			columns = append(columns, col)
		}
		sort.Strings(columns)
		for _, col := range columns {
			fmt.Fprintf(out, "    %s: %v\n", col, c.Row[col])
		}
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
