// Registry commands: add, list, weight, find, track, and status.
package cli

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cargohold/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		c     types.Cargo
		items []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a cargo record",
		Long: `Add a cargo record and assign it a tracking number.

Items are given as name:quantity:unit_weight and may be repeated, up to 10.

Example:
  cargohold add --id 1 --sender "Acme Co" --address "123 Main St" \
    --destination Springfield --status "In Transit" --item Widget:10:1.55`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range items {
				item, err := parseItem(arg)
				if err != nil {
					return userError(err)
				}
				c.Items = append(c.Items, item)
			}

			hold, err := a.open()
			if err != nil {
				return err
			}
			added, err := hold.Registry.Add(c)
			if err != nil {
				return userError(err)
			}
			if err := a.save(hold); err != nil {
				return err
			}
			a.logger.Info().Int("id", added.ID).Str("tracking", added.TrackingNumber).Msg("cargo added")

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, added)
			}
			fmt.Fprintln(out, "Cargo added successfully!")
			fmt.Fprintf(out, "Tracking Number: %s\n", added.TrackingNumber)
			fmt.Fprintf(out, "Total Weight: %.2f kg\n", added.TotalWeight)
			return nil
		},
	}

	cmd.Flags().IntVar(&c.ID, "id", 0, "cargo id, unique in the registry")
	cmd.Flags().StringVar(&c.Sender, "sender", "", "sender name")
	cmd.Flags().StringVar(&c.SenderAddress, "address", "", "sender address")
	cmd.Flags().StringVar(&c.Destination, "destination", "", "destination")
	cmd.Flags().StringVar(&c.Status, "status", "", "status, e.g. In Transit, Delivered, Warehouse")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item as name:quantity:unit_weight (repeatable)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// parseItem parses name:quantity:unit_weight. The name may itself contain
// colons; the last two fields are numeric.
func parseItem(arg string) (types.CargoItem, error) {
	wi := strings.LastIndex(arg, ":")
	if wi < 0 {
		return types.CargoItem{}, fmt.Errorf("item %q: expected name:quantity:unit_weight", arg)
	}
	qi := strings.LastIndex(arg[:wi], ":")
	if qi < 0 {
		return types.CargoItem{}, fmt.Errorf("item %q: expected name:quantity:unit_weight", arg)
	}

	qty, err := strconv.Atoi(strings.TrimSpace(arg[qi+1 : wi]))
	if err != nil {
		return types.CargoItem{}, fmt.Errorf("item %q: quantity: %w", arg, types.ErrInvalidNumericField)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(arg[wi+1:]), 64)
	if err != nil {
		return types.CargoItem{}, fmt.Errorf("item %q: unit weight: %w", arg, types.ErrInvalidNumericField)
	}
	return types.CargoItem{Name: arg[:qi], Quantity: qty, UnitWeight: weight}, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every cargo record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hold, err := a.open()
			if err != nil {
				return err
			}
			records := collect(hold.Registry.All())

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No cargo records available.")
				return nil
			}
			renderTable(out, records)
			fmt.Fprintf(out, "Total records: %d\n", len(records))
			return nil
		},
	}
}

func newWeightCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "weight",
		Short: "Print the total weight of all cargo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hold, err := a.open()
			if err != nil {
				return err
			}
			total := hold.Registry.TotalWeight()

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"records":      hold.Registry.Len(),
					"total_weight": total,
				})
			}
			renderWeight(cmd.OutOrStdout(), total)
			return nil
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search cargo by destination or status",
		Long: `Search cargo by destination or status.

Matching ignores ASCII case but is otherwise exact: "springfield" finds
"Springfield" but not "Springfield East".`,
	}
	cmd.AddCommand(newFindByCmd(a, "destination", "for destination", types.Registry.FindByDestination))
	cmd.AddCommand(newFindByCmd(a, "status", "with status", types.Registry.FindByStatus))
	return cmd
}

func newFindByCmd(a *app, field, phrase string, find func(types.Registry, string) iter.Seq[types.Cargo]) *cobra.Command {
	return &cobra.Command{
		Use:   field + " <term>",
		Short: "Find cargo " + phrase + " <term>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hold, err := a.open()
			if err != nil {
				return err
			}
			term := args[0]
			records := collect(find(hold.Registry, term))

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				return writeJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No cargo found %s: %s\n", phrase, term)
				return nil
			}
			renderTable(out, records)
			return nil
		},
	}
}

func newTrackCmd(a *app) *cobra.Command {
	var (
		id     int
		number string
	)

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Show one cargo record by id or tracking number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hold, err := a.open()
			if err != nil {
				return err
			}

			var (
				c  types.Cargo
				ok bool
			)
			if cmd.Flags().Changed("id") {
				c, ok = hold.Registry.FindByID(id)
				if !ok {
					return userError(fmt.Errorf("no cargo with id %d: %w", id, types.ErrNotFound))
				}
			} else {
				c, ok = hold.Registry.FindByTrackingNumber(number)
				if !ok {
					return userError(fmt.Errorf("no cargo with tracking number %s: %w", number, types.ErrNotFound))
				}
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			renderDetail(cmd.OutOrStdout(), c)
			return nil
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "cargo id")
	cmd.Flags().StringVar(&number, "number", "", "tracking number, e.g. TRK1000")
	cmd.MarkFlagsMutuallyExclusive("id", "number")
	cmd.MarkFlagsOneRequired("id", "number")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the status of a cargo record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return userError(fmt.Errorf("cargo id %q: %w", args[0], types.ErrInvalidNumericField))
			}

			hold, err := a.open()
			if err != nil {
				return err
			}
			updated, err := hold.Registry.UpdateStatus(id, args[1])
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return userError(err)
				}
				return err
			}
			if err := a.save(hold); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cargo %d (%s) status: %s\n", updated.ID, updated.TrackingNumber, updated.Status)
			return nil
		},
	}
}

// collect gathers seq into a non-nil slice so empty results encode as [].
func collect(seq iter.Seq[types.Cargo]) []types.Cargo {
	records := []types.Cargo{}
	for c := range seq {
		records = append(records, c)
	}
	return records
}
