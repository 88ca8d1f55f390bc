package domain

import (
	"strconv"
	"time"
)

// BlogCategories lists the categories a new blog post may be filed under.
var BlogCategories = []string{
	"Technology",
	"Sport",
	"Food",
	"Travel",
	"Health",
	"Finance",
	"Lifestyle",
	"Other",
}

// Blog is a published post. The slug addresses the post in URLs.
type Blog struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Thumbnail   string      `json:"thumbnail"`
	Content     string      `json:"content"`
	Category    string      `json:"category,omitempty"`
	UserID      int64       `json:"userId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	User        *BlogAuthor `json:"user,omitempty"`
}

// BlogAuthor is the author reference embedded in a blog payload.
type BlogAuthor struct {
	Name string `json:"name"`
}

// AuthorName returns the author's display name, falling back to the user ID.
func (b Blog) AuthorName() string {
	if b.User != nil && b.User.Name != "" {
		return b.User.Name
	}
	return strconv.FormatInt(b.UserID, 10)
}

// NewBlog is the payload for creating a blog post.
type NewBlog struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Author      string `json:"author"`
	Thumbnail   string `json:"thumbnail"`
	Content     string `json:"content"`
}

// PageMeta is the pagination metadata reported by the server.
type PageMeta struct {
	Page  int `json:"page"`
	Take  int `json:"take"`
	Total int `json:"total"`
}

// TotalPages returns ceil(Total / Take), or 0 when Take is not positive.
func (m PageMeta) TotalPages() int {
	if m.Take <= 0 || m.Total <= 0 {
		return 0
	}
	return (m.Total + m.Take - 1) / m.Take
}

// BlogPage is one page of the blog listing.
type BlogPage struct {
	Data []Blog   `json:"data"`
	Meta PageMeta `json:"meta"`
}

// BlogListQuery selects a page of the blog listing.
type BlogListQuery struct {
	Page   int
	Take   int
	Search string
}
