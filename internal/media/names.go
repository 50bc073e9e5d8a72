package media

import "math/rand"

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomSegment returns n characters drawn uniformly from [A-Za-z0-9].
// Short human-readable codes; collisions with active rooms are not checked.
func randomSegment(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = nameAlphabet[rand.Intn(len(nameAlphabet))]
	}
	return string(b)
}

func randomRoomName() string {
	return "room-" + randomSegment(4) + "-" + randomSegment(4)
}

func randomIdentity() string {
	return "identity-" + randomSegment(4)
}
