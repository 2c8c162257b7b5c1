package model

// User - автор постов.
// Posts заполняется только при явной загрузке связи (authorsWithPosts),
// поле User.posts в схеме всегда резолвится отдельным запросом.
type User struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Age       int     `json:"age"`
	Posts     []*Post `json:"-"`
}

type Post struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID string `json:"authorId"`
	Author   *User  `json:"author,omitempty"`
	Tags     []*Tag `json:"tags,omitempty"`
}

type Tag struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Posts []*Post `json:"-"`
}

type CreatePostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	AuthorID string   `json:"authorId"`
	Tags     []string `json:"tags"`
}
