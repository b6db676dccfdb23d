package i

// LineConn is a bidirectional stream of text lines. ReadLine and WriteLine
// may be called concurrently with each other; Close unblocks a pending ReadLine.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(string) error
	Close() error
	RemoteAddr() string
}
