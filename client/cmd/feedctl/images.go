package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/yhonda-ohishi/articlefeed/imagestream/sink"
)

func (a *app) imagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Fetch, upload and remove article images",
		Long: `Fetch, upload and remove article images.

Subcommands:
  fetch   - Stream an article's images into the configured sinks
  upload  - Attach image files to an article
  remove  - Delete images by id`,
	}

	cmd.AddCommand(a.imagesFetchCmd())
	cmd.AddCommand(a.imagesUploadCmd())
	cmd.AddCommand(a.imagesRemoveCmd())
	return cmd
}

func (a *app) imagesFetchCmd() *cobra.Command {
	var maxAmount int

	cmd := &cobra.Command{
		Use:   "fetch <article-id>",
		Short: "Stream an article's images into the configured sinks",
		Long: `Stream an article's images and store each one in every sink enabled in
the configuration (sinks.dir, sinks.journal, sinks.nats, sinks.redis).
An image repeated under the same id replaces the earlier one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			if maxAmount == 0 {
				maxAmount = a.cfg.Stream.MaxFrames
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}
			s, closeSinks, err := a.openSinks()
			if err != nil {
				return err
			}
			defer closeSinks()

			out := cmd.OutOrStdout()
			gallery := sink.NewGallery(reportFrames(out, s), a.log)

			dec, err := c.OpenArticleImages(cmd.Context(), id, maxAmount)
			if err != nil {
				return err
			}
			defer dec.Close()

			_, err = sink.Drain(cmd.Context(), dec, gallery)
			return summarize(out, gallery.Len(), dec.Stats(), err)
		},
	}

	cmd.Flags().IntVarP(&maxAmount, "max", "n", 0, "at most this many images (0 = stream.max_frames)")
	return cmd
}

func (a *app) imagesUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <article-id> <file>...",
		Short: "Attach image files to an article",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}

			images := make([]string, 0, len(args)-1)
			for _, path := range args[1:] {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				images = append(images, dataURL(data))
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}
			if err := c.UploadImages(cmd.Context(), id, images); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d images attached to article %d\n", len(images), id)
			return nil
		},
	}
}

// dataURL encodes an image the way the upload form does.
func dataURL(data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimetype.Detect(data).String(), base64.StdEncoding.EncodeToString(data))
}

func (a *app) imagesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <image-id>...",
		Short: "Delete images by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}
			if err := c.RemoveImages(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d images removed\n", len(ids))
			return nil
		},
	}
}
