package models

import "time"

type PostType string

const (
	PostTypeBlog  PostType = "blog"
	PostTypeImage PostType = "image"
	PostTypeVideo PostType = "video"
)

// Post is one row of the posts table. Only the media fields matching Type
// are populated: ImageURLs for blog posts, ImageURL for image posts and
// VideoURL for video posts.
type Post struct {
	ID               string
	UserID           string
	Type             PostType
	Title            string
	Content          string
	PlainTextContent string
	IsPublished      bool
	ImageURLs        []string
	ImageURL         string
	VideoURL         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Keywords         []string
}

type Keyword struct {
	ID   string
	Text string
}
