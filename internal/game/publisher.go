package game

// Publisher delivers messages to a single player's session.
type Publisher interface {
	PublishToPlayer(uid string, data []byte) error
}
