package gormstore

import "time"

type userRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:128;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// followingRow is an entry of UserID's following list.
type followingRow struct {
	UserID    string `gorm:"primaryKey;size:36"`
	TargetID  string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (followingRow) TableName() string { return "user_following" }

// followerRow is an entry of UserID's followers list.
type followerRow struct {
	UserID     string `gorm:"primaryKey;size:36"`
	FollowerID string `gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time
}

func (followerRow) TableName() string { return "user_followers" }

type savedRow struct {
	UserID    string `gorm:"primaryKey;size:36"`
	BlogID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (savedRow) TableName() string { return "user_saved_blogs" }

type blogRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Title     string    `gorm:"size:255;not null"`
	Content   string    `gorm:"type:longtext;not null"`
	Image     string    `gorm:"size:1024"`
	Tags      []string  `gorm:"serializer:json;type:json"`
	AuthorID  string    `gorm:"size:36;not null;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (blogRow) TableName() string { return "blogs" }

type likeRow struct {
	BlogID    string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (likeRow) TableName() string { return "blog_likes" }

type commentRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	BlogID    string    `gorm:"size:36;not null;index"`
	UserID    string    `gorm:"size:36;not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

func (commentRow) TableName() string { return "blog_comments" }

type reportRow struct {
	BlogID    string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36;index"`
	Reason    string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (reportRow) TableName() string { return "blog_reports" }
