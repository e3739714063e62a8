package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coursekit/internal/diagram"

	"github.com/spf13/cobra"
)

const defaultXMLRoot = "jZPj-5loQ12BBoLkCjAN-1"

func newMakeDriveArchCmd(opts *options) *cobra.Command {
	var (
		input     string
		output    string
		xmlRoot   string
		separator string
		fromDB    string
		dryRun    bool
		save      bool
	)
	cmd := &cobra.Command{
		Use:   "make-drive-arch",
		Short: "Create a directory hierarchy from a draw.io diagram",
		Long: `Create a directory hierarchy from a draw.io XML export.

Every shape connected to the root shape becomes a directory named after its
label, nested under the shape that reaches it first walking out from the root.`,
		Example: `  coursekit make-drive-arch -i myarch.drawio.xml -o ./
  coursekit make-drive-arch -i myarch.drawio.xml -o ./ --xml-root "jZPj-5loQ12BBoLkCjAN-1"
  coursekit make-drive-arch -i myarch.drawio.xml -o ./ --dry-run
  coursekit make-drive-arch -i myarch.drawio.xml -o ./ --save --dry-run
  coursekit make-drive-arch --from-db myarch.drawio.xml -o ./`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadDiagram(cmd, opts, input, fromDB)
			if err != nil {
				return err
			}
			log.Printf("Loaded %d nodes and %d edges", g.Len(), len(g.Edges))

			paths, err := diagram.ResolvePaths(g, xmlRoot, separator)
			if err != nil {
				return err
			}
			for _, p := range paths.CollidingPaths() {
				log.Printf("Warning: %d nodes share the path %q", len(paths.Collisions()[p]), p)
			}

			if save {
				store, err := opts.initStore()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.SaveDiagram(cmd.Context(), filepath.Base(input), g); err != nil {
					return fmt.Errorf("failed to save diagram: %w", err)
				}
			}

			created, err := diagram.MaterializePaths(paths, output, dryRun)
			out := cmd.OutOrStdout()
			for _, dir := range created {
				fmt.Fprintln(out, dir)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Input architecture XML file")
	cmd.Flags().StringVar(&fromDB, "from-db", "", "Use the diagram snapshot saved under this name instead of --input")
	cmd.MarkFlagsOneRequired("input", "from-db")
	cmd.MarkFlagsMutuallyExclusive("input", "from-db")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Root path for directories")
	cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&xmlRoot, "xml-root", defaultXMLRoot, "Root node for the XML hierarchy")
	cmd.Flags().StringVar(&separator, "separator", "/", "Separator placed between labels")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be created, without making any directories")
	cmd.Flags().BoolVar(&save, "save", false, "Store a snapshot of the parsed diagram in the local database")
	cmd.MarkFlagsMutuallyExclusive("save", "from-db")
	return cmd
}

// loadDiagram parses the input file, or reads a snapshot saved with --save.
func loadDiagram(cmd *cobra.Command, opts *options, input, fromDB string) (*diagram.Graph, error) {
	if fromDB != "" {
		store, err := opts.initStore()
		if err != nil {
			return nil, err
		}
		defer store.Close()

		g, err := store.LoadDiagram(cmd.Context(), fromDB)
		if err != nil {
			return nil, fmt.Errorf("failed to load diagram: %w", err)
		}
		if g.Len() == 0 {
			return nil, fmt.Errorf("no diagram snapshot named %q in %s", fromDB, opts.dbPath)
		}
		return g, nil
	}

	f, err := os.Open(filepath.Clean(input))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return diagram.Parse(f)
}
