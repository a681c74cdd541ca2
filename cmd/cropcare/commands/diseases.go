package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/cropcare/pkg/cli"
	"github.com/haivivi/cropcare/pkg/disease"
)

var diseasesCmd = &cobra.Command{
	Use:   "diseases [name]",
	Short: "Show the disease knowledge base",
	Long: `Show one disease entry, or every entry when no name is given.

The name may be a key, a classifier label or a free-form name.

Examples:
  cropcare diseases
  cropcare diseases Apple___Apple_scab
  cropcare diseases "early blight" -o yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := disease.Default()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return outputResult(cmd, cli.Entries(c.Entries()))
		}
		ref, err := requireArg(args, "disease name")
		if err != nil {
			return err
		}
		e, ok := c.Entry(ref)
		if !ok {
			return fmt.Errorf("disease not found: %s", ref)
		}
		return outputResult(cmd, cli.Entries{e})
	},
}

var treatmentCmd = &cobra.Command{
	Use:   "treatment <label>",
	Short: "Resolve treatment advice for a label",
	Long: `Resolve treatment advice for a classifier label or disease name.

Unknown names still produce generic advice that mentions the name.

Examples:
  cropcare treatment Apple___Apple_scab
  cropcare treatment APPLESCAB -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := disease.Default()
		if err != nil {
			return err
		}
		label, err := requireArg(args, "label")
		if err != nil {
			return err
		}
		return outputResult(cmd, cli.TreatmentView(disease.NewResolver(c).Lookup(label)))
	},
}
