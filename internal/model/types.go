package model

import (
	"time"

	"github.com/google/uuid"
)

// Role gates admin-only operations
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AuthMethod is the credential column a client identifies itself with
type AuthMethod string

const (
	MethodEmail    AuthMethod = "email"
	MethodPhone    AuthMethod = "phone"
	MethodUsername AuthMethod = "username"
)

// AuthType selects between logging in and registering
type AuthType string

const (
	TypeLogin    AuthType = "login"
	TypeRegister AuthType = "register"
)

// User represents an account
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     *string   `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone"`
	Name      *string   `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	IsBlocked bool      `db:"is_blocked" json:"isBlocked"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the author block embedded in comments and files
type UserSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Username string    `db:"username" json:"username"`
	Phone    *string   `db:"phone" json:"phone"`
	Name     *string   `db:"name" json:"name"`
}

// Otp is the single pending one-time code of a user
type Otp struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"userId"`
	Code       string     `db:"code" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expiresAt"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// Gender values accepted on profiles
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Profile holds the optional public details of a user
type Profile struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	UserID             uuid.UUID  `db:"user_id" json:"userId"`
	Bio                *string    `db:"bio" json:"bio"`
	Avatar             *string    `db:"avatar" json:"avatar"`
	BgImage            *string    `db:"bg_image" json:"bg_image"`
	Gender             *string    `db:"gender" json:"gender"`
	Birthday           *time.Time `db:"birthday" json:"birthday"`
	LinkedinProfileURL *string    `db:"linkedin_profile_url" json:"linkedin_profile_url"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
	User               *User      `db:"-" json:"user,omitempty"`
}

// Category groups blogs
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Priority  *int      `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BlogStatus is the publication state of a blog
type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
)

// Blog is a post written by a user
type Blog struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AuthorID    uuid.UUID  `db:"author_id" json:"authorId"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Description string     `db:"description" json:"description"`
	Content     string     `db:"content" json:"content"`
	Image       *string    `db:"image" json:"image"`
	Status      BlogStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	Categories  []Category `db:"-" json:"categories"`
}

// BlogComment is a comment on a blog; replies point at their parent
type BlogComment struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	BlogID    uuid.UUID     `db:"blog_id" json:"blogId"`
	UserID    uuid.UUID     `db:"user_id" json:"userId"`
	ParentID  *uuid.UUID    `db:"parent_id" json:"parentId"`
	Text      string        `db:"text" json:"text"`
	Accepted  bool          `db:"accepted" json:"accepted"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	User      *UserSummary  `db:"-" json:"user,omitempty"`
	Children  []BlogComment `db:"-" json:"children,omitempty"`
}

// FileCategory classifies uploads
type FileCategory string

const (
	FileImage    FileCategory = "image"
	FileVideo    FileCategory = "video"
	FileAudio    FileCategory = "audio"
	FileDocument FileCategory = "document"
	FileArchive  FileCategory = "archive"
	FileOther    FileCategory = "other"
)

// Valid reports whether c is a known category
func (c FileCategory) Valid() bool {
	switch c {
	case FileImage, FileVideo, FileAudio, FileDocument, FileArchive, FileOther:
		return true
	}
	return false
}

// File is an uploaded object tracked by the file manager
type File struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	UserID       uuid.UUID    `db:"user_id" json:"userId"`
	Filename     string       `db:"filename" json:"filename"`
	OriginalName string       `db:"original_name" json:"originalName"`
	Path         string       `db:"path" json:"path"`
	MimeType     string       `db:"mime_type" json:"mimeType"`
	Size         int64        `db:"size" json:"size"`
	Category     FileCategory `db:"category" json:"category"`
	Description  *string      `db:"description" json:"description"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
	DeletedAt    *time.Time   `db:"deleted_at" json:"deletedAt,omitempty"`
	URL          string       `db:"-" json:"url"`
}
