package models

// UserRequest is the client payload for create and update. Any id or owner a
// client sends is not even representable here: the server assigns the id and
// stamps the owner from the authenticated principal.
type UserRequest struct {
	Name        string `json:"name"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Birthday    Date   `json:"birthday"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
}
