package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect the reference gallery",
}

var galleryBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed every reference photo and report what was loaded",
	Long: `Build the gallery from REFERENCE_DIR the same way the camera and recognize
commands do, and report loaded and skipped references.

With DATABASE_URL set, embeddings are cached so later builds only embed new or
changed photos.`,
	Args: cobra.NoArgs,
	RunE: runGalleryBuild,
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reference photos without embedding them",
	Args:  cobra.NoArgs,
	RunE:  runGalleryList,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryBuildCmd)
	galleryCmd.AddCommand(galleryListCmd)
}

func runGalleryBuild(cmd *cobra.Command, _ []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	rt, err := newRuntime(cmd, !jsonOutput)
	if err != nil {
		return err
	}
	defer rt.Close()

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), rt.report)
	}

	out := cmd.OutOrStdout()
	g := rt.store.Current()
	fmt.Fprintf(out, "Gallery: %d identities, dimension %d\n", g.Len(), g.Dimension())
	fmt.Fprintf(out, "Found %d, loaded %d, cached %d, skipped %d in %s\n",
		rt.report.Found, rt.report.Loaded, rt.report.CacheHits, len(rt.report.Skipped), rt.report.Duration)

	if len(rt.report.Skipped) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\nSKIPPED\tFILE\tREASON")
		for _, s := range rt.report.Skipped {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Identity, s.Name, s.Reason)
		}
		_ = w.Flush()
	}
	return nil
}

// referenceEntry is one row of gallery list
type referenceEntry struct {
	Identity string `json:"identity"`
	File     string `json:"file"`
}

func runGalleryList(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	refs, err := gallery.NewDirSource(cfg.ReferenceDir).References(cmd.Context())
	if err != nil {
		return err
	}

	entries := make([]referenceEntry, 0, len(refs))
	for _, r := range refs {
		entries = append(entries, referenceEntry{Identity: r.Identity.String(), File: r.Name})
	}

	if mustGetBool(cmd, "json") {
		return writeJSON(cmd.OutOrStdout(), entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tFILE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Identity, e.File)
	}
	_ = w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d references in %s\n", len(entries), cfg.ReferenceDir)
	return nil
}
