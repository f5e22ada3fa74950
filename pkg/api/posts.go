package api

import "time"

// User представляет профиль пользователя в ответах сервера
type User struct {
	ID           string `json:"_id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	HomeCity     string `json:"homeCity,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Comment представляет комментарий к посту
type Comment struct {
	Date time.Time `json:"date"`
	User User      `json:"user"`
	Body string    `json:"body"`
}

// Post представляет пост ленты
type Post struct {
	CreatedAt   time.Time `json:"createdAt"`
	User        User      `json:"user"`
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	City        string    `json:"city"`
	Type        string    `json:"type"`
	Comments    []Comment `json:"comments"`
	Likes       []string  `json:"likes"`
}

// LikedBy проверяет, есть ли userID среди лайкнувших пост
func (p *Post) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CommentRequest представляет запрос на добавление комментария
type CommentRequest struct {
	Date time.Time `json:"date"`
	Body string    `json:"body"`
}
