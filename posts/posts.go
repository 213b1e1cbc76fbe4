// Package posts holds the dev backend's feed: posts with an image and caption, their
// comments and the likes on both.
package posts

import (
	"sort"
	"time"
)

type Post struct {
	ID          int64
	CreatorID   int64
	CreatorName string
	Content     string
	ImageURL    string
	CreatedAt   time.Time
	LikedBy     []int64 // user ids, in like order
	Comments    []*Comment
}

type Comment struct {
	ID         int64
	PostID     int64
	AuthorID   int64
	AuthorName string
	Content    string
	CreatedAt  time.Time
	LikedBy    []int64
}

// LikedByUser reports whether userID currently likes the post
func (p *Post) LikedByUser(userID int64) bool {
	return containsID(p.LikedBy, userID)
}

func (c *Comment) LikedByUser(userID int64) bool {
	return containsID(c.LikedBy, userID)
}

// Clone returns a deep copy that can be handed out without holding the repo lock
func (p *Post) Clone() *Post {
	cp := *p
	cp.LikedBy = append([]int64(nil), p.LikedBy...)
	cp.Comments = make([]*Comment, len(p.Comments))
	for i, c := range p.Comments {
		cc := *c
		cc.LikedBy = append([]int64(nil), c.LikedBy...)
		cp.Comments[i] = &cc
	}
	return &cp
}

type SortOrder string

const (
	SortLatest   SortOrder = "latest"
	SortLikes    SortOrder = "likes"
	SortComments SortOrder = "comments"
)

// Sort orders posts in place. Ties, and unknown orders, fall back to newest first.
func Sort(list []*Post, order SortOrder) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch order {
		case SortLikes:
			if len(a.LikedBy) != len(b.LikedBy) {
				return len(a.LikedBy) > len(b.LikedBy)
			}
		case SortComments:
			if len(a.Comments) != len(b.Comments) {
				return len(a.Comments) > len(b.Comments)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// toggle adds id to list, or removes it when already present
func toggle(list []int64, id int64) ([]int64, bool) {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...), false
		}
	}
	return append(list, id), true
}

// ToggleLike flips userID's like on the post and reports whether it is now liked
func (p *Post) ToggleLike(userID int64) bool {
	var liked bool
	p.LikedBy, liked = toggle(p.LikedBy, userID)
	return liked
}

func (c *Comment) ToggleLike(userID int64) bool {
	var liked bool
	c.LikedBy, liked = toggle(c.LikedBy, userID)
	return liked
}

func containsID(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
