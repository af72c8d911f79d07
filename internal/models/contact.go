package models

import "time"

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=200"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=40"`
	Subject   string    `json:"subject,omitempty" validate:"max=200"`
	Message   string    `json:"message" validate:"required,max=5000"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email" validate:"required,email"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
