package draft

import "github.com/mauv0809/crispy-fiesta/internal/contest"

// Merge resolves a local draft against a remotely observed prediction. The
// higher sequence number wins; on equal sequence numbers the remote value
// wins, since the server copy is the authoritative one.
func Merge(local, remote contest.Prediction) contest.Prediction {
	if local.Seq > remote.Seq {
		return local
	}
	return remote
}
