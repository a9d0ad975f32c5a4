package cmd

import (
	"github.com/lehigh-university-libraries/coursemarketer/internal/studio"
	"github.com/spf13/cobra"
)

func newStudioCmd() *cobra.Command {
	var imageDir string

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Generate marketing content interactively in the terminal",
		Example: `  coursemarketer studio
  coursemarketer studio --images ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return studio.New(a.newMachine(), a.keys, studio.WithImageDir(imageDir)).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&imageDir, "images", ".", "Directory to save slide art into")

	return cmd
}
