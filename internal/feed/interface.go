package feed

// Publisher pushes change events onto the feed after every authoritative
// write.
type Publisher interface {
	Publish(ev Event) error
}
