package api

import "strings"

// LikeResult is the outcome of toggling a like.
//
// Older backends only report the new state in a human readable message. When that is
// all there is, Liked is guessed from the wording and Inferred is set.
type LikeResult struct {
	LikeCount int
	Message   string
	Liked     bool
	Inferred  bool
}

type likeResponse struct {
	LikeCount int    `json:"likeCount"`
	Message   string `json:"message"`
	Liked     *bool  `json:"liked"`
}

// unlikeMarkers are substrings the backend uses when a like was removed
var unlikeMarkers = []string{"취소", "unlike", "cancel", "removed"}

func (r likeResponse) result() LikeResult {
	res := LikeResult{
		LikeCount: r.LikeCount,
		Message:   r.Message,
	}
	if r.Liked != nil {
		res.Liked = *r.Liked
		return res
	}

	res.Inferred = true
	res.Liked = true
	msg := strings.ToLower(r.Message)
	for _, marker := range unlikeMarkers {
		if strings.Contains(msg, marker) {
			res.Liked = false
			break
		}
	}
	return res
}
