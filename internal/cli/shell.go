// Interactive menu over one loaded registry.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/cargohold/pkg/cargohold"
	"github.com/mesh-intelligence/cargohold/pkg/types"
)

// errEndOfInput ends the shell when stdin is exhausted.
var errEndOfInput = errors.New("end of input")

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive cargo menu",
		Long: "Run the interactive cargo menu. The registry is loaded once and only written\n" +
			"back when you choose to save.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hold, err := a.open()
			if err != nil {
				return err
			}
			s := &shell{
				app:  a,
				hold: hold,
				in:   bufio.NewScanner(cmd.InOrStdin()),
				out:  cmd.OutOrStdout(),
			}
			return s.run()
		},
	}
}

// shell reads menu choices and answers from in, one per line.
type shell struct {
	app  *app
	hold *cargohold.Hold
	in   *bufio.Scanner
	out  io.Writer
}

func (s *shell) run() error {
	fmt.Fprintf(s.out, "System ready. %d cargo records loaded.\n", s.hold.Registry.Len())
	for {
		s.menu()
		line, err := s.ask("Please enter your choice (1-8): ")
		if errors.Is(err, errEndOfInput) {
			// Closing stdin leaves without saving.
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return sysError(err)
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > 8 {
			fmt.Fprintln(s.out, "Invalid choice. Please enter a number between 1 and 8.")
			continue
		}

		switch choice {
		case 1:
			err = s.add()
		case 2:
			s.list()
		case 3:
			fmt.Fprintln(s.out)
			renderWeight(s.out, s.hold.Registry.TotalWeight())
		case 4:
			err = s.search("destination", "for destination", types.Registry.FindByDestination)
		case 5:
			err = s.search("status", "with status", types.Registry.FindByStatus)
		case 6:
			err = s.track()
		case 7:
			s.save()
		case 8:
			return s.exit()
		}
		if errors.Is(err, errEndOfInput) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return sysError(err)
		}
	}
}

func (s *shell) menu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "=== CARGO MANAGEMENT SYSTEM ===")
	fmt.Fprintln(s.out, "1. Add New Cargo")
	fmt.Fprintln(s.out, "2. View All Cargo")
	fmt.Fprintln(s.out, "3. Calculate Total Weight")
	fmt.Fprintln(s.out, "4. Search by Destination")
	fmt.Fprintln(s.out, "5. Search by Status")
	fmt.Fprintln(s.out, "6. Track Cargo")
	fmt.Fprintln(s.out, "7. Save Data to File")
	fmt.Fprintln(s.out, "8. Exit")
}

// ask prints prompt and returns the next input line without surrounding
// whitespace.
func (s *shell) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errEndOfInput
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// confirm asks a y/n question; anything but y or Y is no.
func (s *shell) confirm(prompt string) (bool, error) {
	answer, err := s.ask(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, "y"), nil
}

func (s *shell) add() error {
	r := s.hold.Registry
	if r.Len() >= r.Cap() {
		fmt.Fprintf(s.out, "Error: Maximum cargo capacity reached (%d records).\n", r.Cap())
		return nil
	}

	fmt.Fprintln(s.out, "\n--- Add New Cargo ---")
	line, err := s.ask("Enter cargo ID: ")
	if err != nil {
		return err
	}
	var c types.Cargo
	if c.ID, err = strconv.Atoi(line); err != nil {
		fmt.Fprintln(s.out, "Error: Invalid ID format. Cargo not added.")
		return nil
	}
	if _, taken := r.FindByID(c.ID); taken {
		fmt.Fprintf(s.out, "Error: ID %d already exists. Cargo not added.\n", c.ID)
		return nil
	}

	if c.Sender, err = s.ask("Enter sender name: "); err != nil {
		return err
	}
	if c.SenderAddress, err = s.ask("Enter sender address: "); err != nil {
		return err
	}
	if c.Destination, err = s.ask("Enter destination: "); err != nil {
		return err
	}
	if c.Items, err = s.items(); err != nil {
		return err
	}
	if c.Status, err = s.ask("Enter status (e.g., In Transit, Delivered, Warehouse): "); err != nil {
		return err
	}

	added, err := r.Add(c)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v. Cargo not added.\n", err)
		return nil
	}
	s.app.logger.Info().Int("id", added.ID).Str("tracking", added.TrackingNumber).Msg("cargo added")
	fmt.Fprintln(s.out, "\nCargo added successfully!")
	fmt.Fprintf(s.out, "Tracking Number: %s\n", added.TrackingNumber)
	fmt.Fprintf(s.out, "Total Weight: %.2f kg\n", added.TotalWeight)
	return nil
}

// items prompts for at least one item and keeps going while the user asks
// for another, up to types.MaxItems. An item with a bad quantity or weight
// is asked for again.
func (s *shell) items() ([]types.CargoItem, error) {
	fmt.Fprintf(s.out, "\nAdding cargo items (max %d items):\n", types.MaxItems)
	var items []types.CargoItem
	for len(items) < types.MaxItems {
		fmt.Fprintf(s.out, "\nItem %d:\n", len(items)+1)
		name, err := s.ask("Enter item name: ")
		if err != nil {
			return nil, err
		}
		line, err := s.ask("Enter quantity: ")
		if err != nil {
			return nil, err
		}
		qty, qerr := strconv.Atoi(line)
		if qerr != nil || qty < 0 {
			fmt.Fprintln(s.out, "Error: Invalid quantity. Must be a whole number, zero or more.")
			continue
		}
		line, err = s.ask("Enter unit weight (kg): ")
		if err != nil {
			return nil, err
		}
		weight, werr := strconv.ParseFloat(line, 64)
		if werr != nil || !(weight > 0) || math.IsInf(weight, 1) {
			fmt.Fprintln(s.out, "Error: Invalid weight. Must be a positive number.")
			continue
		}
		items = append(items, types.CargoItem{Name: name, Quantity: qty, UnitWeight: weight})

		if len(items) == types.MaxItems {
			fmt.Fprintln(s.out, "Maximum items reached.")
			break
		}
		more, err := s.confirm("Add another item? (y/n): ")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return items, nil
}

func (s *shell) list() {
	records := collect(s.hold.Registry.All())
	if len(records) == 0 {
		fmt.Fprintln(s.out, "No cargo records available.")
		return
	}
	fmt.Fprintln(s.out, "\n--- All Cargo Records ---")
	renderTable(s.out, records)
	fmt.Fprintf(s.out, "Total records: %d\n", len(records))
}

func (s *shell) search(field, phrase string, find func(types.Registry, string) iter.Seq[types.Cargo]) error {
	if s.hold.Registry.Len() == 0 {
		fmt.Fprintln(s.out, "No cargo records available to search.")
		return nil
	}
	term, err := s.ask(fmt.Sprintf("Enter %s to search for: ", field))
	if err != nil {
		return err
	}
	records := collect(find(s.hold.Registry, term))
	if len(records) == 0 {
		fmt.Fprintf(s.out, "No cargo found %s: %s\n", phrase, term)
		return nil
	}
	fmt.Fprintf(s.out, "\nSearch results %s: %s\n", phrase, term)
	renderTable(s.out, records)
	return nil
}

func (s *shell) track() error {
	r := s.hold.Registry
	if r.Len() == 0 {
		fmt.Fprintln(s.out, "No cargo records available to track.")
		return nil
	}

	fmt.Fprintln(s.out, "\n--- Track Cargo ---")
	fmt.Fprintln(s.out, "Enter 1 to search by ID")
	fmt.Fprintln(s.out, "Enter 2 to search by Tracking Number")
	option, err := s.ask("Enter option: ")
	if err != nil {
		return err
	}

	switch option {
	case "1":
		line, err := s.ask("Enter cargo ID to track: ")
		if err != nil {
			return err
		}
		id, convErr := strconv.Atoi(line)
		c, ok := r.FindByID(id)
		if convErr != nil || !ok {
			fmt.Fprintf(s.out, "No cargo found with ID: %s\n", line)
			return nil
		}
		fmt.Fprintln(s.out, "\nCargo found!")
		renderDetail(s.out, c)
	case "2":
		code, err := s.ask("Enter tracking number to track: ")
		if err != nil {
			return err
		}
		c, ok := r.FindByTrackingNumber(code)
		if !ok {
			fmt.Fprintf(s.out, "No cargo found with tracking number: %s\n", code)
			return nil
		}
		fmt.Fprintln(s.out, "\nCargo found!")
		renderDetail(s.out, c)
	default:
		fmt.Fprintln(s.out, "Invalid option.")
	}
	return nil
}

// save writes the registry and reports the outcome. A failed save is
// reported and the menu continues.
func (s *shell) save() {
	if err := s.hold.Save(); err != nil {
		fmt.Fprintf(s.out, "Error: Could not save data: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Data saved successfully to %s. %d records written.\n", s.hold.Path(), s.hold.Registry.Len())
}

func (s *shell) exit() error {
	fmt.Fprintln(s.out)
	yes, err := s.confirm("Do you want to save before exiting? (y/n): ")
	if err != nil && !errors.Is(err, errEndOfInput) {
		return err
	}
	if yes {
		s.save()
	}
	fmt.Fprintln(s.out, "\nThank you for using the Cargo Management System!")
	fmt.Fprintln(s.out, "Goodbye!")
	return nil
}
