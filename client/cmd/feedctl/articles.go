package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yhonda-ohishi/articlefeed/client"
)

func (a *app) articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Read and publish articles",
		Long: `Read and publish articles.

Subcommands:
  list    - List the feed or one author's articles
  get     - Show one article in full
  search  - Full-text search
  add     - Publish a new article
  update  - Replace an article's text
  author  - Show an author's profile`,
	}

	cmd.AddCommand(a.articlesListCmd())
	cmd.AddCommand(a.articlesGetCmd())
	cmd.AddCommand(a.articlesSearchCmd())
	cmd.AddCommand(a.articlesAddCmd())
	cmd.AddCommand(a.articlesUpdateCmd())
	cmd.AddCommand(a.authorCmd())
	return cmd
}

func (a *app) articlesListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Long: `List the feed, or one author's articles with --login.
Paging applies only when both --amount and --chunk are given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			articles, err := c.ListArticles(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAUTHOR\tTITLE")
			for _, art := range articles {
				fmt.Fprintf(w, "%d\t%s\t%s\n", art.ID, art.UserName, art.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Login, "login", "", "only this author's articles")
	cmd.Flags().IntVar(&opts.Amount, "amount", 0, "page size")
	cmd.Flags().IntVar(&opts.Chunk, "chunk", 0, "page number, starting at 1")
	return cmd
}

func (a *app) articlesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <article-id>",
		Short: "Show one article in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}
			art, err := c.GetArticle(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), art)
		},
	}
}

func (a *app) articlesSearchCmd() *cobra.Command {
	var opts client.SearchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = args[0]
			c, err := a.newClient()
			if err != nil {
				return err
			}
			results, err := c.SearchArticles(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAUTHOR\tSCORE\tTITLE")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%.3f\t%s\n", r.ArticleID, r.Login, r.Score, r.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Login, "login", "", "only this author's articles")
	cmd.Flags().IntVar(&opts.Amount, "amount", 5, "results per page")
	cmd.Flags().IntVar(&opts.Chunk, "chunk", 1, "page number, starting at 1")
	cmd.Flags().BoolVar(&opts.Announcement, "announcement", false, "also match announcements")
	return cmd
}

func (a *app) articlesAddCmd() *cobra.Command {
	var art client.NewArticle

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a new article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if art.Title == "" || art.Body == "" {
				return errors.New("--title and --body are required")
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}
			id, err := c.AddArticle(cmd.Context(), art)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Article %d published\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&art.Title, "title", "", "article title")
	cmd.Flags().StringVar(&art.Announcement, "announcement", "", "short announcement")
	cmd.Flags().StringVar(&art.Body, "body", "", "article body")
	return cmd
}

func (a *app) articlesUpdateCmd() *cobra.Command {
	var art client.ArticleFull

	cmd := &cobra.Command{
		Use:   "update <article-id>",
		Short: "Replace an article's text",
		Long: `Replace an article's text. Fields not given on the command line keep
their current values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			c, err := a.newClient()
			if err != nil {
				return err
			}
			current, err := c.GetArticle(cmd.Context(), id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				current.Title = art.Title
			}
			if flags.Changed("announcement") {
				current.Announcement = art.Announcement
			}
			if flags.Changed("body") {
				current.Body = art.Body
			}
			current.ID = id

			if err := c.UpdateArticle(cmd.Context(), *current); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Article %d updated\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&art.Title, "title", "", "new title")
	cmd.Flags().StringVar(&art.Announcement, "announcement", "", "new announcement")
	cmd.Flags().StringVar(&art.Body, "body", "", "new body")
	return cmd
}

func (a *app) authorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "author <name>",
		Short: "Show an author's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newClient()
			if err != nil {
				return err
			}
			author, err := c.GetAuthor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), author)
		},
	}
}
