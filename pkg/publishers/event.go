package publishers

import "time"

// Run type labels carried on published events.
const (
	RunStats = "stats"
	RunLikes = "likes"
)

// Event is the run summary published downstream after a collection run.
type Event struct {
	Run           string    `json:"run"`
	Date          string    `json:"date"`
	ArticleCount  int       `json:"article_count"`
	NewLikeCount  int       `json:"new_like_count"`
	TotalPV       int       `json:"total_pv"`
	TotalLike     int       `json:"total_like"`
	TotalComment  int       `json:"total_comment"`
	FollowerCount *int      `json:"follower_count,omitempty"`
	CollectedAt   time.Time `json:"collected_at"`
}

// NewEvent constructs an Event for the given run and snapshot date.
func NewEvent(run, date string) Event {
	return Event{
		Run:         run,
		Date:        date,
		CollectedAt: time.Now().UTC(),
	}
}
