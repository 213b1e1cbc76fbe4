package fakepostrepo

import (
	"sync"

	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/posts"
)

var _ posts.Repo = (*FakePostRepo)(nil)

type FakePostRepo struct {
	posts         map[int64]*posts.Post
	nextPostID    int64
	nextCommentID int64
	lock          sync.RWMutex
}

func NewFakePostRepo() posts.Repo {
	return &FakePostRepo{
		posts:         make(map[int64]*posts.Post),
		nextPostID:    1,
		nextCommentID: 1,
	}
}

func (pr *FakePostRepo) Create(post *posts.Post) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	post.ID = pr.nextPostID
	pr.nextPostID++
	for _, c := range post.Comments {
		c.ID = pr.nextCommentID
		c.PostID = post.ID
		pr.nextCommentID++
	}
	pr.posts[post.ID] = post.Clone()
	return nil
}

func (pr *FakePostRepo) Get(id int64) (*posts.Post, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	p, ok := pr.posts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return p.Clone(), nil
}

func (pr *FakePostRepo) List() ([]*posts.Post, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	list := make([]*posts.Post, 0, len(pr.posts))
	for _, p := range pr.posts {
		list = append(list, p.Clone())
	}
	return list, nil
}

func (pr *FakePostRepo) Update(id int64, content, imageURL string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.Content = content
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	return nil
}

func (pr *FakePostRepo) Delete(id int64) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if _, ok := pr.posts[id]; !ok {
		return errors.ErrNotFound
	}
	delete(pr.posts, id)
	return nil
}

func (pr *FakePostRepo) ToggleLike(postID, userID int64) (posts.LikeOutcome, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[postID]
	if !ok {
		return posts.LikeOutcome{}, errors.ErrNotFound
	}
	liked := p.ToggleLike(userID)
	return posts.LikeOutcome{Liked: liked, Count: len(p.LikedBy)}, nil
}

func (pr *FakePostRepo) AddComment(postID int64, comment *posts.Comment) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[postID]
	if !ok {
		return errors.ErrNotFound
	}
	comment.ID = pr.nextCommentID
	comment.PostID = postID
	pr.nextCommentID++

	stored := *comment
	stored.LikedBy = append([]int64(nil), comment.LikedBy...)
	p.Comments = append(p.Comments, &stored)
	return nil
}

func (pr *FakePostRepo) GetComment(postID, commentID int64) (*posts.Comment, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	c, err := pr.findComment(postID, commentID)
	if err != nil {
		return nil, err
	}
	cp := *c
	cp.LikedBy = append([]int64(nil), c.LikedBy...)
	return &cp, nil
}

func (pr *FakePostRepo) UpdateComment(postID, commentID int64, content string) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	c, err := pr.findComment(postID, commentID)
	if err != nil {
		return err
	}
	c.Content = content
	return nil
}

func (pr *FakePostRepo) DeleteComment(postID, commentID int64) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	p, ok := pr.posts[postID]
	if !ok {
		return errors.ErrNotFound
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return errors.ErrNotFound
}

func (pr *FakePostRepo) ToggleCommentLike(postID, commentID, userID int64) (posts.LikeOutcome, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	c, err := pr.findComment(postID, commentID)
	if err != nil {
		return posts.LikeOutcome{}, err
	}
	liked := c.ToggleLike(userID)
	return posts.LikeOutcome{Liked: liked, Count: len(c.LikedBy)}, nil
}

// findComment must be called with the lock held
func (pr *FakePostRepo) findComment(postID, commentID int64) (*posts.Comment, error) {
	p, ok := pr.posts[postID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	for _, c := range p.Comments {
		if c.ID == commentID {
			return c, nil
		}
	}
	return nil, errors.ErrNotFound
}
