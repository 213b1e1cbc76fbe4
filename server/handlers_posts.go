package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bizcard-client/inbox"
	"github.com/jrsteele09/go-bizcard-client/posts"
	"github.com/rs/zerolog/log"
)

const maxUploadSize = 10 << 20

type commentResponse struct {
	CommentID  int64  `json:"commentId"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	LikeCount  int    `json:"likeCount"`
}

type likeEntry struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

// postResponse keeps the service's field spelling (createrId, createrName)
type postResponse struct {
	PostID        int64             `json:"postId"`
	CreatorID     int64             `json:"createrId"`
	CreatorName   string            `json:"createrName"`
	CreatedAt     string            `json:"createdAt"`
	ImageURL      string            `json:"imageUrl"`
	Content       string            `json:"content,omitempty"`
	LikesCount    int               `json:"likesCount"`
	CommentsCount int               `json:"commentsCount"`
	Comments      []commentResponse `json:"comments,omitempty"`
	Likes         []likeEntry       `json:"likes,omitempty"`
	IsOwnPost     bool              `json:"isOwnPost"`
	UserHasLiked  bool              `json:"userHasLiked"`
}

type likeResponse struct {
	LikeCount int    `json:"likeCount"`
	Message   string `json:"message"`
	Liked     bool   `json:"liked"`
}

type contentRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// toPostResponse renders p for viewerID. Comments and likes are only included when
// detailed is set, as the feed endpoint leaves them out.
func (s *Server) toPostResponse(p *posts.Post, viewerID int64, detailed bool) postResponse {
	resp := postResponse{
		PostID:        p.ID,
		CreatorID:     p.CreatorID,
		CreatorName:   p.CreatorName,
		CreatedAt:     formatTime(p.CreatedAt),
		ImageURL:      p.ImageURL,
		Content:       p.Content,
		LikesCount:    len(p.LikedBy),
		CommentsCount: len(p.Comments),
		IsOwnPost:     p.CreatorID == viewerID,
		UserHasLiked:  p.LikedByUser(viewerID),
	}
	if !detailed {
		return resp
	}
	for _, c := range p.Comments {
		resp.Comments = append(resp.Comments, commentResponse{
			CommentID:  c.ID,
			AuthorName: c.AuthorName,
			Content:    c.Content,
			CreatedAt:  formatTime(c.CreatedAt),
			LikeCount:  len(c.LikedBy),
		})
	}
	for _, id := range p.LikedBy {
		entry := likeEntry{UserID: id}
		if u, err := s.repos.Users.GetByID(id); err == nil {
			entry.UserName = u.Name
		}
		resp.Likes = append(resp.Likes, entry)
	}
	return resp
}

// ListPostsHandler serves the feed: the viewer's and their contacts' posts, or one
// user's posts with filter=specific
func (s *Server) ListPostsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		q := r.URL.Query()

		viewer, err := s.repos.Users.GetByID(claims.UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}

		include := func(creatorID int64) bool {
			return creatorID == viewer.ID || viewer.HasContact(creatorID)
		}
		switch q.Get("filter") {
		case "", "all":
		case "specific":
			specific, err := strconv.ParseInt(q.Get("specificUserId"), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid specificUserId")
				return
			}
			include = func(creatorID int64) bool { return creatorID == specific }
		default:
			writeError(w, http.StatusBadRequest, "unknown filter")
			return
		}

		all, err := s.repos.Posts.List()
		if err != nil {
			writeRepoError(w, err)
			return
		}
		feed := make([]*posts.Post, 0, len(all))
		for _, p := range all {
			if include(p.CreatorID) {
				feed = append(feed, p)
			}
		}
		posts.Sort(feed, posts.SortOrder(q.Get("sort")))

		out := make([]postResponse, 0, len(feed))
		for _, p := range feed {
			out = append(out, s.toPostResponse(p, viewer.ID, false))
		}
		writeJSON(w, http.StatusOK, map[string][]postResponse{"posts": out})
	}
}

func (s *Server) GetPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(w, r, "postId")
		if !ok {
			return
		}
		p, err := s.repos.Posts.Get(postID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.toPostResponse(p, claimsFrom(r).UserID, true))
	}
}

// CreatePostHandler accepts a multipart form with an image file and a content field
func (s *Server) CreatePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		content := strings.TrimSpace(r.FormValue("content"))
		file, header, err := r.FormFile("image")
		if err != nil || content == "" {
			writeError(w, http.StatusBadRequest, "content and image are required")
			return
		}
		defer file.Close()

		name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
		if err := s.uploads.put(name, header.Header.Get("Content-Type"), file); err != nil {
			log.Err(err).Msg("failed to store upload")
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		post := &posts.Post{
			CreatorID:   claims.UserID,
			CreatorName: claims.Name,
			Content:     content,
			ImageURL:    "/uploads/" + name,
			CreatedAt:   s.now(),
		}
		if err := s.repos.Posts.Create(post); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"postId": post.ID, "message": "post created"})
	}
}

func (s *Server) UpdatePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(w, r, "postId")
		if !ok {
			return
		}
		var req contentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !s.requirePostOwner(w, postID, claimsFrom(r).UserID) {
			return
		}
		if err := s.repos.Posts.Update(postID, req.Content, req.ImageURL); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "post updated"})
	}
}

func (s *Server) DeletePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(w, r, "postId")
		if !ok {
			return
		}
		if !s.requirePostOwner(w, postID, claimsFrom(r).UserID) {
			return
		}
		if err := s.repos.Posts.Delete(postID); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "post deleted"})
	}
}

// LikePostHandler toggles the caller's like and notifies the author of new likes
func (s *Server) LikePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		postID, ok := pathID(w, r, "postId")
		if !ok {
			return
		}
		out, err := s.repos.Posts.ToggleLike(postID, claims.UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		if out.Liked {
			if p, err := s.repos.Posts.Get(postID); err == nil {
				s.notify(p.CreatorID, claims, inbox.TypePostLike, fmt.Sprintf("%s liked your post", claims.Name), &postID, nil)
			}
		}
		writeJSON(w, http.StatusOK, toLikeResponse(out))
	}
}

func (s *Server) AddCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		postID, ok := pathID(w, r, "postId")
		if !ok {
			return
		}
		var req contentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}

		comment := &posts.Comment{
			AuthorID:   claims.UserID,
			AuthorName: claims.Name,
			Content:    req.Content,
			CreatedAt:  s.now(),
		}
		if err := s.repos.Posts.AddComment(postID, comment); err != nil {
			writeRepoError(w, err)
			return
		}
		if p, err := s.repos.Posts.Get(postID); err == nil {
			s.notify(p.CreatorID, claims, inbox.TypeComment, fmt.Sprintf("%s commented on your post", claims.Name), &postID, &comment.ID)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"commentId": comment.ID, "message": "comment added"})
	}
}

func (s *Server) UpdateCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, commentID, ok := commentIDs(w, r)
		if !ok {
			return
		}
		var req contentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !s.requireCommentAuthor(w, postID, commentID, claimsFrom(r).UserID) {
			return
		}
		if err := s.repos.Posts.UpdateComment(postID, commentID, req.Content); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "comment updated"})
	}
}

func (s *Server) DeleteCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, commentID, ok := commentIDs(w, r)
		if !ok {
			return
		}
		if !s.requireCommentAuthor(w, postID, commentID, claimsFrom(r).UserID) {
			return
		}
		if err := s.repos.Posts.DeleteComment(postID, commentID); err != nil {
			writeRepoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "comment deleted"})
	}
}

func (s *Server) LikeCommentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		postID, commentID, ok := commentIDs(w, r)
		if !ok {
			return
		}
		out, err := s.repos.Posts.ToggleCommentLike(postID, commentID, claims.UserID)
		if err != nil {
			writeRepoError(w, err)
			return
		}
		if out.Liked {
			if c, err := s.repos.Posts.GetComment(postID, commentID); err == nil {
				s.notify(c.AuthorID, claims, inbox.TypeCommentLike, fmt.Sprintf("%s liked your comment", claims.Name), &postID, &commentID)
			}
		}
		writeJSON(w, http.StatusOK, toLikeResponse(out))
	}
}

func toLikeResponse(out posts.LikeOutcome) likeResponse {
	msg := "like added"
	if !out.Liked {
		msg = "like removed"
	}
	return likeResponse{LikeCount: out.Count, Message: msg, Liked: out.Liked}
}

func commentIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return 0, 0, false
	}
	return postID, commentID, true
}

func (s *Server) requirePostOwner(w http.ResponseWriter, postID, userID int64) bool {
	p, err := s.repos.Posts.Get(postID)
	if err != nil {
		writeRepoError(w, err)
		return false
	}
	if p.CreatorID != userID {
		writeError(w, http.StatusForbidden, "only the author can change this post")
		return false
	}
	return true
}

func (s *Server) requireCommentAuthor(w http.ResponseWriter, postID, commentID, userID int64) bool {
	c, err := s.repos.Posts.GetComment(postID, commentID)
	if err != nil {
		writeRepoError(w, err)
		return false
	}
	if c.AuthorID != userID {
		writeError(w, http.StatusForbidden, "only the author can change this comment")
		return false
	}
	return true
}
