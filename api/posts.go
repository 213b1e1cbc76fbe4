package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
)

type Filter string

const (
	FilterAll      Filter = "all"
	FilterSpecific Filter = "specific"
)

type Sort string

const (
	SortLatest   Sort = "latest"
	SortLikes    Sort = "likes"
	SortComments Sort = "comments"
)

type Post struct {
	PostID        int64     `json:"postId"`
	CreatorID     int64     `json:"createrId"`
	CreatorName   string    `json:"createrName"`
	CreatedAt     string    `json:"createdAt"`
	ImageURL      string    `json:"imageUrl"`
	Content       string    `json:"content,omitempty"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Comments      []Comment `json:"comments,omitempty"`
	Likes         []Like    `json:"likes,omitempty"`
	IsOwnPost     bool      `json:"isOwnPost"`
	UserHasLiked  bool      `json:"userHasLiked"`
}

type Comment struct {
	CommentID  int64  `json:"commentId"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
	LikeCount  int    `json:"likeCount"`
}

type Like struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
}

type ListPostsParams struct {
	Filter         Filter
	SpecificUserID string
	Sort           Sort
}

func (p ListPostsParams) query() url.Values {
	q := url.Values{}
	filter := p.Filter
	if filter == "" {
		filter = FilterAll
	}
	q.Set("filter", string(filter))
	if filter == FilterSpecific {
		q.Set("specificUserId", p.SpecificUserID)
	}
	sort := p.Sort
	if sort == "" {
		sort = SortLatest
	}
	q.Set("sort", string(sort))
	return q
}

func (c *Client) ListPosts(ctx context.Context, params ListPostsParams) ([]Post, error) {
	if params.Filter == FilterSpecific && params.SpecificUserID == "" {
		return nil, fmt.Errorf("ListPosts: specific filter needs a user id")
	}

	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := c.getJSON(ctx, "/posts", params.query(), &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, postID int64) (*Post, error) {
	var post Post
	if err := c.getJSON(ctx, postPath(postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost uploads image with its caption as multipart/form-data and returns the new id
func (c *Client) CreatePost(ctx context.Context, content string, image io.Reader, filename string) (int64, error) {
	if content == "" || image == nil {
		return 0, fmt.Errorf("CreatePost: content and image are required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return 0, errors.Wrapf(err, "CreatePost: image part")
	}
	if _, err := io.Copy(part, image); err != nil {
		return 0, errors.Wrapf(err, "CreatePost: read image")
	}
	if err := mw.WriteField("content", content); err != nil {
		return 0, errors.Wrapf(err, "CreatePost: content field")
	}
	if err := mw.Close(); err != nil {
		return 0, errors.Wrapf(err, "CreatePost: close form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return 0, errors.Wrapf(err, "CreatePost: build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		PostID int64 `json:"postId"`
	}
	if err := c.do(req, "/posts", &resp); err != nil {
		return 0, err
	}
	return resp.PostID, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID int64, content, imageURL string) error {
	body := map[string]string{"content": content, "imageUrl": imageURL}
	return c.doJSON(ctx, http.MethodPut, postPath(postID), body, nil)
}

func (c *Client) DeletePost(ctx context.Context, postID int64) error {
	return c.doJSON(ctx, http.MethodDelete, postPath(postID), nil, nil)
}

// LikePost toggles the current user's like on a post
func (c *Client) LikePost(ctx context.Context, postID int64) (LikeResult, error) {
	return c.like(ctx, postPath(postID)+"/like")
}

// AddComment returns the id of the new comment
func (c *Client) AddComment(ctx context.Context, postID int64, content string) (int64, error) {
	var resp struct {
		CommentID int64 `json:"commentId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, postPath(postID)+"/comments", map[string]string{"content": content}, &resp); err != nil {
		return 0, err
	}
	return resp.CommentID, nil
}

func (c *Client) UpdateComment(ctx context.Context, postID, commentID int64, content string) error {
	return c.doJSON(ctx, http.MethodPut, commentPath(postID, commentID), map[string]string{"content": content}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID int64) error {
	return c.doJSON(ctx, http.MethodDelete, commentPath(postID, commentID), nil, nil)
}

func (c *Client) LikeComment(ctx context.Context, postID, commentID int64) (LikeResult, error) {
	return c.like(ctx, commentPath(postID, commentID)+"/like")
}

func (c *Client) like(ctx context.Context, path string) (LikeResult, error) {
	var resp likeResponse
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return LikeResult{}, err
	}
	return resp.result(), nil
}

func postPath(postID int64) string {
	return "/posts/" + strconv.FormatInt(postID, 10)
}

func commentPath(postID, commentID int64) string {
	return postPath(postID) + "/comments/" + strconv.FormatInt(commentID, 10)
}
