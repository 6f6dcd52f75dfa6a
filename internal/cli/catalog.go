package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List products and their sub-products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.client().Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(products)
			}
			for _, p := range products {
				fmt.Fprintf(a.out, "%s: %s\n", p.Name, strings.Join(p.SubProducts, ", "))
			}
			return nil
		},
	}
}
