package models

// Comment is a comment as it is sent to the blog service and rendered on the page.
type Comment struct {
	PostID   string `json:"post_id"`
	Username string `json:"username"`
	Text     string `json:"comment"`
}

// ProfilePicture is a picture selected for upload. Data may be empty when
// no file was chosen.
type ProfilePicture struct {
	Username    string `json:"username"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

type CommentAck struct {
	Comment string `json:"comment"`
}

type LikeResult struct {
	LikesCounter int `json:"likes_counter"`
}

type DeleteAck struct {
	Deleted string `json:"deleted"`
}

type UploadAck struct {
	Username string `json:"username"`
	Size     int    `json:"size"`
}
