package entity

import "time"

// StudentSession is an opaque-token session row. Sessions are never deleted;
// logout and lazy expiry flip Active so the rows remain for duration
// analytics.
type StudentSession struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Token           string     `json:"-" gorm:"uniqueIndex;size:96"`
	StudentID       uint       `json:"student_id" gorm:"index"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	Active          bool       `json:"active" gorm:"index"`
	LoggedOutAt     *time.Time `json:"logged_out_at"`
	DurationMinutes *int       `json:"duration_minutes"`
}

// Valid reports whether the session is usable at the given instant.
func (s StudentSession) Valid(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}
