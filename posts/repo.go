package posts

// LikeOutcome is the state of a like after a toggle
type LikeOutcome struct {
	Liked bool
	Count int
}

// Repo stores posts with their comments. Implementations return copies: callers never
// mutate stored values directly.
type Repo interface {
	// Create assigns the next post id
	Create(post *Post) error
	Get(id int64) (*Post, error)
	List() ([]*Post, error)
	Update(id int64, content, imageURL string) error
	Delete(id int64) error
	ToggleLike(postID, userID int64) (LikeOutcome, error)

	// AddComment assigns the next comment id
	AddComment(postID int64, comment *Comment) error
	GetComment(postID, commentID int64) (*Comment, error)
	UpdateComment(postID, commentID int64, content string) error
	DeleteComment(postID, commentID int64) error
	ToggleCommentLike(postID, commentID, userID int64) (LikeOutcome, error)
}
