package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/memoir/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <questions.csv>",
	Short: "Add questions from a CSV file to the question bank",
	Long: "Reads one question per row from the first column of a headerless CSV.\n" +
		"Questions already in the bank are left untouched.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		texts, err := importer.Parse(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := importer.Import(cmd.Context(), st, texts)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d questions (%d already present).\n", res.Added, res.Skipped)
		return nil
	},
}
