// Package cli apartment commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hausakte/hausakte/internal/services"
)

// newApartmentsCmd creates the 'apartments' command group.
func newApartmentsCmd() *cobra.Command {
	apartmentsCmd := &cobra.Command{
		Use:     "apartments",
		Aliases: []string{"wohnungen"},
		Short:   "Wohnungs-Stammdaten verwalten",
	}

	apartmentsCmd.AddCommand(newApartmentsDeleteCmd())
	return apartmentsCmd
}

// newApartmentsDeleteCmd creates the 'apartments rm' command.
func newApartmentsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <id> [id...]",
		Short: "Wohnungen löschen",
		Long: `Löscht Wohnungen endgültig. Zugehörige Zählerstände werden vom
Backend mitgelöscht.

Ohne --yes wird vor dem Löschen nachgefragt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(fmt.Sprintf("%d Wohnung(en) mit allen Zählerständen endgültig löschen?", len(args))) {
				fmt.Println("Abgebrochen.")
				return nil
			}

			e, err := engineFromFlags()
			if err != nil {
				return err
			}

			svc := services.NewApartmentService(e.client, e.eventBus)
			flush := e.printToasts()
			err = svc.DeleteApartments(GetContext(), args)
			flush()
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Nicht nachfragen")
	return cmd
}
