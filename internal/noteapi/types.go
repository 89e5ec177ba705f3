package noteapi

import "encoding/json"

// Wire shapes for the note.com JSON endpoints. Only the consumed fields are
// declared; everything else in the payloads is ignored.

// LikeEntry is one like as returned by the likes endpoint.
type LikeEntry struct {
	CreatedAt string   `json:"created_at"`
	User      LikeUser `json:"user"`
}

// LikeUser identifies the liker. IDs arrive as JSON numbers but are treated
// as opaque strings everywhere downstream.
type LikeUser struct {
	ID            json.Number `json:"id"`
	Nickname      string      `json:"nickname"`
	Urlname       string      `json:"urlname"`
	FollowerCount int         `json:"follower_count"`
}

// LikesPage is one decoded page of the likes endpoint. IsLastPage is carried
// for diagnostics only; the API has been observed to report false forever, so
// termination decisions must never depend on it.
type LikesPage struct {
	Likes          []LikeEntry
	LikeCount      int
	LikeCountKnown bool
	IsLastPage     bool
}

type likesResponse struct {
	Data struct {
		Likes       []LikeEntry `json:"likes"`
		IsLastPage  bool        `json:"is_last_page"`
		ExtraFields struct {
			LikeCount *int `json:"like_count"`
		} `json:"extra_fields"`
	} `json:"data"`
}

type statsResponse struct {
	Data *struct {
		NoteStats []struct {
			ID           int64  `json:"id"`
			Key          string `json:"key"`
			Name         string `json:"name"`
			ReadCount    int    `json:"read_count"`
			LikeCount    int    `json:"like_count"`
			CommentCount int    `json:"comment_count"`
		} `json:"note_stats"`
		LastPage     *bool `json:"last_page"`
		TotalPV      int   `json:"total_pv"`
		TotalLike    int   `json:"total_like"`
		TotalComment int   `json:"total_comment"`
	} `json:"data"`
}

type creatorResponse struct {
	Data struct {
		FollowerCount *int `json:"followerCount"`
	} `json:"data"`
}

type noteDetailResponse struct {
	Data struct {
		PublishAt string `json:"publish_at"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	} `json:"data"`
}
