package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-bizcard-client/api"
	"github.com/jrsteele09/go-bizcard-client/app"
	"github.com/jrsteele09/go-bizcard-client/router"
	"github.com/jrsteele09/go-bizcard-client/session"
)

const contentPreview = 48

// printNavigator reports forced navigations (login, logout, expired session, redirects)
type printNavigator struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *printNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "-> %s\n", route)
}

// renderDecision prints the view for a rendered route. Loading and redirect decisions
// print nothing here; redirects already went through the navigator.
func renderDecision(ctx context.Context, w io.Writer, a *app.App, d router.Decision) error {
	if d.Kind != router.Render {
		return nil
	}
	return renderRoute(ctx, w, a, d.Route)
}

func renderRoute(ctx context.Context, w io.Writer, a *app.App, route string) error {
	switch {
	case route == router.RouteLogin:
		fmt.Fprintln(w, "Not logged in. Use `bizcard login --id <login id>`.")
		return nil

	case route == router.RouteSignup:
		fmt.Fprintln(w, "Register with `bizcard signup`.")
		return nil

	case route == router.RouteFeed:
		posts, err := a.API().ListPosts(ctx, api.ListPostsParams{})
		if err != nil {
			return err
		}
		printPosts(w, posts)
		return nil

	case route == router.RouteFriends:
		contacts, err := a.API().ListContacts(ctx)
		if err != nil {
			return err
		}
		printContacts(w, contacts)
		return nil

	case strings.HasPrefix(route, router.RouteFriends+"/"):
		userID := strings.TrimPrefix(route, router.RouteFriends+"/")
		contact, err := a.API().GetContact(ctx, userID)
		if err != nil {
			return err
		}
		printContact(w, contact)
		posts, err := a.API().ListPosts(ctx, api.ListPostsParams{Filter: api.FilterSpecific, SpecificUserID: userID})
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		printPosts(w, posts)
		return nil

	case route == router.RouteMyPage:
		printWhoami(w, a.State().Snapshot(), time.Now())
		return nil

	case route == router.RouteCreatePost:
		fmt.Fprintln(w, "Create a post with `bizcard posts create --content <text> --image <file>`.")
		return nil

	case route == router.RouteNotifications:
		if err := a.Notifications().Refresh(ctx); err != nil {
			return err
		}
		printNotifications(w, a.Notifications().Store().List())
		return nil
	}

	fmt.Fprintf(w, "Nothing to show at %s\n", route)
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printPosts(w io.Writer, posts []api.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tAUTHOR\tLIKES\tCOMMENTS\tCREATED\tCONTENT")
	for _, p := range posts {
		liked := ""
		if p.UserHasLiked {
			liked = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d%s\t%d\t%s\t%s\n",
			p.PostID, p.CreatorName, p.LikesCount, liked, p.CommentsCount, p.CreatedAt, preview(p.Content))
	}
	_ = tw.Flush()
}

func printPost(w io.Writer, p *api.Post) {
	fmt.Fprintf(w, "Post %d by %s (%s)\n", p.PostID, p.CreatorName, p.CreatedAt)
	fmt.Fprintf(w, "Image: %s\n", p.ImageURL)
	fmt.Fprintf(w, "\n%s\n\n", p.Content)

	names := make([]string, 0, len(p.Likes))
	for _, l := range p.Likes {
		names = append(names, l.UserName)
	}
	fmt.Fprintf(w, "Likes (%d): %s\n", p.LikesCount, strings.Join(names, ", "))

	if len(p.Comments) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "COMMENT\tAUTHOR\tLIKES\tCREATED\tCONTENT")
	for _, c := range p.Comments {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", c.CommentID, c.AuthorName, c.LikeCount, c.CreatedAt, c.Content)
	}
	_ = tw.Flush()
}

func printLike(w io.Writer, res api.LikeResult) {
	state := "unliked"
	if res.Liked {
		state = "liked"
	}
	fmt.Fprintf(w, "%s (%d likes)\n", state, res.LikeCount)
}

func printContacts(w io.Writer, contacts []api.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "No contacts yet")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCOMPANY\tDEPARTMENT\tPOSITION")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.UserID, c.Name, c.Company, c.Department, c.Position)
	}
	_ = tw.Flush()
}

func printContact(w io.Writer, c *api.Contact) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Company:\t%s\n", c.Company)
	fmt.Fprintf(tw, "Department:\t%s\n", c.Department)
	fmt.Fprintf(tw, "Position:\t%s\n", c.Position)
	fmt.Fprintf(tw, "Email:\t%s\n", c.Email)
	fmt.Fprintf(tw, "Phone:\t%s\n", c.Phone)
	_ = tw.Flush()
}

func printNotifications(w io.Writer, items []api.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	unread := 0
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\t\tTYPE\tCREATED\tMESSAGE")
	for _, n := range items {
		mark := ""
		if !n.IsRead {
			mark = "new"
			unread++
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.NotificationID, mark, n.Type, n.CreatedAt, n.Message)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d unread\n", unread)
}

func printWhoami(w io.Writer, snap session.Snapshot, now time.Time) {
	if !snap.IsAuthenticated || snap.UserInfo == nil {
		fmt.Fprintln(w, "Not logged in")
		return
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "User:\t%s\n", snap.UserInfo.Name)
	fmt.Fprintf(tw, "User ID:\t%d\n", snap.UserInfo.UserID)

	info, err := session.InspectAccessToken(snap.UserInfo.Token)
	switch {
	case err != nil:
		fmt.Fprintf(tw, "Access token:\topaque\n")
	case info.ExpiresAt.IsZero():
		fmt.Fprintf(tw, "Access token:\tno expiry\n")
	case info.Expired(now):
		fmt.Fprintf(tw, "Access token:\texpired %s ago (refreshed on next request)\n", now.Sub(info.ExpiresAt).Round(time.Second))
	default:
		fmt.Fprintf(tw, "Access token:\texpires in %s\n", info.ExpiresAt.Sub(now).Round(time.Second))
	}
	_ = tw.Flush()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= contentPreview {
		return s
	}
	return string(r[:contentPreview-3]) + "..."
}
