package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/spf13/cobra"
)

func newFeedCommand(c *cli) *cobra.Command {
	var (
		userID string
		sort   string
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts from you and your contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			route := router.RouteFeed
			params := api.ListPostsParams{Sort: api.Sort(sort)}
			if userID != "" {
				route = router.FriendFeed(userID)
				params.Filter = api.FilterSpecific
				params.SpecificUserID = userID
			}

			ctx := commandContext(cmd)
			d, err := c.app.Navigate(ctx, route)
			if err != nil {
				return err
			}
			if d.Kind != router.Render {
				return nil
			}

			posts, err := c.app.API().ListPosts(ctx, params)
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Only show posts by this contact")
	cmd.Flags().StringVar(&sort, "sort", string(api.SortLatest), "Order: latest, likes or comments")
	return cmd
}

func newPostsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read, like and create posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPostsGetCommand(c))
	cmd.AddCommand(newPostsLikeCommand(c))
	cmd.AddCommand(newPostsCreateCommand(c))
	return cmd
}

func newPostsGetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <postId>",
		Short: "Show a post with its comments and likes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			postID, err := parseID(args[0])
			if err != nil {
				return err
			}
			post, err := c.app.API().GetPost(commandContext(cmd), postID)
			if err != nil {
				return err
			}
			printPost(cmd.OutOrStdout(), post)
			return nil
		},
	}
}

func newPostsLikeCommand(c *cli) *cobra.Command {
	var commentID int64

	cmd := &cobra.Command{
		Use:   "like <postId>",
		Short: "Toggle your like on a post or one of its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			postID, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			var res api.LikeResult
			if commentID != 0 {
				res, err = c.app.API().LikeComment(ctx, postID, commentID)
			} else {
				res, err = c.app.API().LikePost(ctx, postID)
			}
			if err != nil {
				return err
			}
			printLike(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().Int64Var(&commentID, "comment", 0, "Like this comment instead of the post")
	return cmd
}

func newPostsCreateCommand(c *cli) *cobra.Command {
	var content, image string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish an image with a caption",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			if _, err := c.app.Navigate(ctx, router.RouteCreatePost); err != nil {
				return err
			}

			f, err := os.Open(image)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			postID, err := c.app.API().CreatePost(ctx, content, f, filepath.Base(image))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %d\n", postID)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Caption")
	cmd.Flags().StringVar(&image, "image", "", "Image file to upload")
	_ = cmd.MarkFlagRequired("content")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newContactsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts [userId]",
		Short: "List exchanged cards, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			route := router.RouteFriends
			if len(args) == 1 {
				route = router.FriendFeed(args[0])
			}

			d, err := c.app.Navigate(ctx, route)
			if err != nil {
				return err
			}
			if d.Kind != router.Render {
				return nil
			}

			if len(args) == 0 {
				contacts, err := c.app.API().ListContacts(ctx)
				if err != nil {
					return err
				}
				printContacts(cmd.OutOrStdout(), contacts)
				return nil
			}

			contact, err := c.app.API().GetContact(ctx, args[0])
			if err != nil {
				return err
			}
			printContact(cmd.OutOrStdout(), contact)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
